package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
)

// CatalogBuilder generates a synthetic product catalog and customer
// population for seeding a demo store. Products follow the configured risk,
// term and yield distributions so the matcher sees a realistic spread.
type CatalogBuilder struct {
	cfg    config.Config
	rng    *rand.Rand
	logger *slog.Logger
}

// NewCatalogBuilder creates a builder drawing from rng.
func NewCatalogBuilder(cfg config.Config, rng *rand.Rand, logger *slog.Logger) *CatalogBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogBuilder{cfg: cfg, rng: rng, logger: logger}
}

// newID draws a UUID from the seeded RNG so repeated seeding runs produce
// the same identifiers.
func (cb *CatalogBuilder) newID() string {
	return uuid.Must(uuid.NewRandomFromReader(cb.rng)).String()
}

var issuers = []string{
	"Huaxin Bank", "Orient Trust", "Golden Harbor AM",
	"Pinnacle Securities", "Riverstone Fund",
}

var regions = []struct{ region, province string }{
	{"east", "Jiangsu"},
	{"east", "Zhejiang"},
	{"south", "Guangdong"},
	{"north", "Beijing"},
	{"central", "Hubei"},
	{"west", "Sichuan"},
}

// typesByCategory lists the plausible product types per risk category.
var typesByCategory = map[model.RiskCategory][]model.ProductType{
	model.CategoryLow:    {model.TypeMoneyMarket, model.TypeStructuredDeposit, model.TypeBond},
	model.CategoryMedium: {model.TypeBond, model.TypeMixed},
	model.CategoryHigh:   {model.TypeMixed, model.TypeEquity},
}

var levelsByCategory = map[model.RiskCategory][]model.RiskLevel{
	model.CategoryLow:    {model.RiskR1, model.RiskR2},
	model.CategoryMedium: {model.RiskR3},
	model.CategoryHigh:   {model.RiskR4, model.RiskR5},
}

// BuildProducts generates n products spread across the configured risk
// distribution, with terms drawn from the term bands and yields from the
// per-category ranges plus term bonuses.
func (cb *CatalogBuilder) BuildProducts(n int, asOf time.Time) []model.Product {
	dist := cb.cfg.ExpectedReturn.RiskDistribution
	categoryWeights := []float64{dist.Low, dist.Medium, dist.High}
	categories := []model.RiskCategory{model.CategoryLow, model.CategoryMedium, model.CategoryHigh}

	products := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		category := categories[common.WeightedIndex(cb.rng, categoryWeights)]
		levels := levelsByCategory[category]
		level := levels[cb.rng.Intn(len(levels))]
		types := typesByCategory[category]
		ptype := types[cb.rng.Intn(len(types))]

		months := cb.drawTerm()
		yield := cb.drawYield(category, months)

		style := model.RedeemAnytime
		if ptype == model.TypeStructuredDeposit || cb.rng.Float64() < 0.25 {
			style = model.RedeemFixedWindow
		}

		minimum := []float64{1000, 5000, 10000, 50000, 100000}[cb.rng.Intn(5)]

		product := model.Product{
			ID:                     "PRD-" + cb.newID()[:8],
			Name:                   fmt.Sprintf("%s %s %dM #%03d", issuers[cb.rng.Intn(len(issuers))], displayType(ptype), months, i+1),
			Issuer:                 issuers[cb.rng.Intn(len(issuers))],
			RiskLevel:              level,
			Type:                   ptype,
			RedemptionStyle:        style,
			InvestmentPeriodMonths: months,
			ExpectedYield:          yield,
			MinimumInvestment:      minimum,
			MarketingActive:        true,
			LaunchDate:             asOf.AddDate(0, 0, -cb.rng.Intn(365)),
		}
		switch {
		case cb.rng.Float64() < 0.05:
			product.VIPOnly = true
		case cb.rng.Float64() < 0.05:
			product.CorporateOnly = true
		case cb.rng.Float64() < 0.10:
			product.PersonalOnly = true
		}
		if cb.rng.Float64() < 0.10 {
			product.PerCustomerCap = 1 + cb.rng.Intn(3)
		}
		products = append(products, product)
	}
	return products
}

func (cb *CatalogBuilder) drawTerm() int {
	terms := cb.cfg.Terms
	buckets := []config.TermBucket{terms.Short, terms.Medium, terms.Long}
	weights := []float64{terms.Short.Ratio, terms.Medium.Ratio, terms.Long.Ratio}
	bucket := buckets[common.WeightedIndex(cb.rng, weights)]
	if len(bucket.Months) == 0 {
		return 6
	}
	return bucket.Months[cb.rng.Intn(len(bucket.Months))]
}

func (cb *CatalogBuilder) drawYield(category model.RiskCategory, months int) float64 {
	er := cb.cfg.ExpectedReturn
	var r config.YieldRange
	switch category {
	case model.CategoryLow:
		r = er.Low
	case model.CategoryMedium:
		r = er.Medium
	default:
		r = er.High
	}
	yield := r.Min + cb.rng.Float64()*(r.Max-r.Min)
	switch termBucket(months) {
	case termMedium:
		yield += er.MediumTermBonus
	case termLong:
		yield += er.LongTermBonus
	}
	return yield
}

func displayType(t model.ProductType) string {
	switch t {
	case model.TypeMoneyMarket:
		return "Cash"
	case model.TypeBond:
		return "Bond"
	case model.TypeMixed:
		return "Balanced"
	case model.TypeEquity:
		return "Equity"
	case model.TypeStructuredDeposit:
		return "Structured"
	default:
		return "Wealth"
	}
}

var riskLevels = []model.RiskLevel{model.RiskR1, model.RiskR2, model.RiskR3, model.RiskR4, model.RiskR5}
var riskLevelWeights = []float64{0.15, 0.25, 0.30, 0.20, 0.10}

var wealthPhases = []model.WealthPhase{
	model.PhaseRegistered, model.PhaseFirstPurchase, model.PhaseEstablished,
	model.PhaseRecall, model.PhaseLost,
}
var wealthPhaseWeights = []float64{0.20, 0.15, 0.45, 0.12, 0.08}

// BuildCustomers generates n customer profiles with a retail-heavy mix.
func (cb *CatalogBuilder) BuildCustomers(n int, asOf time.Time) []model.Customer {
	customers := make([]model.Customer, 0, n)
	for i := 0; i < n; i++ {
		corporate := cb.rng.Float64() < 0.15
		ctype := model.CustomerPersonal
		if corporate {
			ctype = model.CustomerCorporate
		}
		loc := regions[cb.rng.Intn(len(regions))]
		savings := 20000 + cb.rng.Float64()*480000
		if corporate {
			savings = 500000 + cb.rng.Float64()*9500000
		}

		customer := model.Customer{
			ID:                "CUS-" + cb.newID()[:8],
			Type:              ctype,
			RiskLevel:         riskLevels[common.WeightedIndex(cb.rng, riskLevelWeights)],
			IncomeTier:        drawIncomeTier(cb.rng),
			WealthPhase:       wealthPhases[common.WeightedIndex(cb.rng, wealthPhaseWeights)],
			Region:            loc.region,
			Province:          loc.province,
			Savings:           savings,
			TotalAssets:       savings * (1.2 + cb.rng.Float64()),
			MonthlyIncome:     5000 + cb.rng.Float64()*45000,
			DaysSinceActivity: cb.rng.Intn(180),
			IsVIP:             !corporate && cb.rng.Float64() < 0.12,
			RegisteredAt:      asOf.AddDate(0, 0, -cb.rng.Intn(1095)),
		}
		if customer.WealthPhase == model.PhaseEstablished || customer.WealthPhase == model.PhaseRecall {
			customer.WealthBalance = savings * (0.1 + 0.4*cb.rng.Float64())
		}
		customers = append(customers, customer)
	}
	return customers
}

func drawIncomeTier(rng *rand.Rand) model.IncomeTier {
	switch common.WeightedIndex(rng, []float64{0.3, 0.5, 0.2}) {
	case 0:
		return model.IncomeLow
	case 2:
		return model.IncomeHigh
	default:
		return model.IncomeMedium
	}
}
