package engine

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
)

// Aggregate score weights. They sum to 1 so the result stays in [0, 1].
const (
	weightRisk        = 0.30
	weightFeature     = 0.25
	weightHistory     = 0.20
	weightConstraints = 0.15
	weightMarket      = 0.06
	weightTiming      = 0.04
)

// HistoryReader is the read-only slice of the persistence layer the matcher
// scores against.
type HistoryReader interface {
	GetCustomerHistory(ctx context.Context, customerID string, limit int) ([]model.PositionSummary, error)
	CountCustomerPositions(ctx context.Context, customerID, productID string) (int, error)
}

// ProductMatcher filters a candidate catalog down to the products a customer
// is eligible for and ranks them by a weighted multi-factor score.
type ProductMatcher struct {
	risk    *RiskCapacityModel
	history HistoryReader
	rng     *rand.Rand
	logger  *slog.Logger

	lookback int
	limit    int
}

// NewProductMatcher creates a matcher. The RNG is only used for the small
// history jitter that keeps repeat recommendations from being fully
// deterministic.
func NewProductMatcher(cfg config.Config, risk *RiskCapacityModel, history HistoryReader, rng *rand.Rand, logger *slog.Logger) *ProductMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductMatcher{
		risk:     risk,
		history:  history,
		rng:      rng,
		logger:   logger,
		lookback: cfg.System.HistoryLookback,
		limit:    cfg.System.MatchLimit,
	}
}

// FindMatches returns the customer's eligible products ranked by score,
// highest first, at most limit entries (the configured default when limit
// is zero). Products in exclude are skipped before scoring. A failed history
// lookup degrades to neutral history scores rather than failing the call.
func (pm *ProductMatcher) FindMatches(ctx context.Context, customer *model.Customer, candidates []model.Product, exclude []string, limit int) ([]model.MatchResult, error) {
	if customer == nil || len(candidates) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = pm.limit
	}

	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	capacity := pm.risk.Capacity(customer)
	history := pm.loadHistory(ctx, customer.ID)

	results := make([]model.MatchResult, 0, len(candidates))
	for i := range candidates {
		product := &candidates[i]
		if excluded[product.ID] {
			continue
		}
		ok, err := pm.eligible(ctx, customer, product, capacity)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		scores := pm.score(customer, product, capacity, history)
		results = append(results, model.MatchResult{
			Product: product,
			Scores:  scores,
			Score:   aggregate(scores),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// eligible applies the hard constraints. Any single failure removes the
// product entirely; no score is computed for ineligible products.
func (pm *ProductMatcher) eligible(ctx context.Context, customer *model.Customer, product *model.Product, capacity model.Capacity) (bool, error) {
	if !pm.risk.Accepts(customer.RiskLevel, product.RiskCategory()) {
		return false, nil
	}
	if product.MinimumInvestment > capacity.MaxAmount {
		return false, nil
	}
	if product.CorporateOnly && customer.Type != model.CustomerCorporate {
		return false, nil
	}
	if product.PersonalOnly && customer.Type != model.CustomerPersonal {
		return false, nil
	}
	if product.VIPOnly && !customer.IsVIP {
		return false, nil
	}
	if len(product.AllowedRegions) > 0 && !regionAllowed(customer, product.AllowedRegions) {
		return false, nil
	}
	if len(product.AllowedPhases) > 0 && !phaseAllowed(customer.WealthPhase, product.AllowedPhases) {
		return false, nil
	}
	if product.PerCustomerCap > 0 {
		count, err := pm.history.CountCustomerPositions(ctx, customer.ID, product.ID)
		if err != nil {
			return false, err
		}
		if count >= product.PerCustomerCap {
			return false, nil
		}
	}
	return true, nil
}

func (pm *ProductMatcher) score(customer *model.Customer, product *model.Product, capacity model.Capacity, history []model.PositionSummary) model.MatchScores {
	return model.MatchScores{
		Risk:        pm.riskFit(customer, product),
		Constraints: constraintFit(customer, product, capacity),
		History:     pm.historyFit(product, history),
		Feature:     pm.featureFit(customer, product, history),
		Market:      0.5,
		Timing:      0.5,
	}
}

func aggregate(s model.MatchScores) float64 {
	return weightRisk*s.Risk +
		weightFeature*s.Feature +
		weightHistory*s.History +
		weightConstraints*s.Constraints +
		weightMarket*s.Market +
		weightTiming*s.Timing
}

// riskFit scores the distance between the customer's ladder position and the
// product's level, scaled by the ladder's confidence weight. Three or more
// levels apart is effectively a mismatch.
func (pm *ProductMatcher) riskFit(customer *model.Customer, product *model.Product) float64 {
	distance := customer.RiskLevel.Ordinal() - product.RiskLevel.Ordinal()
	if distance < 0 {
		distance = -distance
	}
	var fit float64
	switch distance {
	case 0:
		fit = 1.0
	case 1:
		fit = 0.7
	case 2:
		fit = 0.4
	default:
		fit = 0.05
	}
	return common.Clamp(fit*pm.risk.ConfidenceWeight(customer.RiskLevel), 0, 1)
}

// constraintFit averages the soft constraint scores: amount accessibility,
// location match and wealth-phase match. Hard violations were already
// filtered out, so this grades how comfortably the product fits.
func constraintFit(customer *model.Customer, product *model.Product, capacity model.Capacity) float64 {
	amount := 1.0
	if product.MinimumInvestment > capacity.MinAmount {
		span := capacity.MaxAmount - capacity.MinAmount
		if span > 0 {
			amount = 1 - (product.MinimumInvestment-capacity.MinAmount)/span
		} else {
			amount = 0.5
		}
	}

	location := 1.0
	if len(product.AllowedRegions) > 0 {
		location = 0.6 // reached here via province-only match
		for _, region := range product.AllowedRegions {
			if region == customer.Region {
				location = 1.0
				break
			}
		}
	}

	phase := 1.0
	if len(product.AllowedPhases) > 0 {
		phase = 0.2
		for _, p := range product.AllowedPhases {
			if p == customer.WealthPhase {
				phase = 1.0
				break
			}
		}
		if phase < 1.0 && (customer.WealthPhase == model.PhaseEstablished || customer.WealthPhase == model.PhaseRecall) {
			phase = 0.5
		}
	}

	return common.Clamp((common.Clamp(amount, 0, 1)+location+phase)/3, 0, 1)
}

// historyFit scores how well the product resembles the customer's recent
// purchases: same type, same risk category, the exact product, and how often
// past positions ran to a clean finish. A small jitter keeps the ranking from
// recommending identical lists run after run.
func (pm *ProductMatcher) historyFit(product *model.Product, history []model.PositionSummary) float64 {
	if len(history) == 0 {
		return 0.5
	}

	var sameType, sameCategory, completed float64
	exact := 0.0
	for _, h := range history {
		if h.ProductType == product.Type {
			sameType++
		}
		if h.RiskCategory == product.RiskCategory() {
			sameCategory++
		}
		if h.ProductID == product.ID {
			exact = 1.0
		}
		if h.Status == model.StatusFullyRedeemed {
			completed++
		}
	}
	n := float64(len(history))
	fit := 0.30*(sameType/n) + 0.25*(sameCategory/n) + 0.20*exact + 0.25*(completed/n)
	fit += (pm.rng.Float64()*2 - 1) * 0.05
	return common.Clamp(fit, 0, 1)
}

// featureFit blends term preference, yield preference, product-type affinity,
// redemption-style preference and issuer affinity.
func (pm *ProductMatcher) featureFit(customer *model.Customer, product *model.Product, history []model.PositionSummary) float64 {
	term := termPreference(customer, product.InvestmentPeriodMonths)
	yield := yieldPreference(customer.RiskLevel, product.ExpectedYield)
	affinity := typeAffinity(customer, product.Type, history)
	style := stylePreference(customer, product.RedemptionStyle)
	issuer := issuerAffinity(product.Issuer, history)
	return common.Clamp((term+yield+affinity+style+issuer)/5, 0, 1)
}

// termPreference curves over short/medium/long terms per customer segment:
// corporates park money longer, retail prefers short and liquid, VIP retail
// sits in between.
func termPreference(customer *model.Customer, months int) float64 {
	bucket := termBucket(months)
	if customer.Type == model.CustomerCorporate {
		switch bucket {
		case termShort:
			return 0.5
		case termMedium:
			return 0.9
		default:
			return 0.8
		}
	}
	if customer.IsVIP {
		switch bucket {
		case termShort:
			return 0.6
		case termMedium:
			return 0.9
		default:
			return 0.7
		}
	}
	switch bucket {
	case termShort:
		return 0.9
	case termMedium:
		return 0.7
	default:
		return 0.4
	}
}

type termBand int

const (
	termShort termBand = iota
	termMedium
	termLong
)

func termBucket(months int) termBand {
	switch {
	case months <= 3:
		return termShort
	case months <= 12:
		return termMedium
	default:
		return termLong
	}
}

// yieldPreference is a triangular curve peaking at the ideal yield for the
// customer's risk level: both too-low and too-high yields lose points.
func yieldPreference(level model.RiskLevel, yield float64) float64 {
	ideal := [...]float64{0.035, 0.042, 0.055, 0.075, 0.095}[level.Ordinal()-1]
	if ideal <= 0 {
		return 0.5
	}
	return common.Clamp(1-math.Abs(yield-ideal)/ideal, 0, 1)
}

// typeAffinity uses the customer's historical purchase-type distribution, or
// a risk-level default table when there is no history.
func typeAffinity(customer *model.Customer, ptype model.ProductType, history []model.PositionSummary) float64 {
	if len(history) > 0 {
		var same float64
		for _, h := range history {
			if h.ProductType == ptype {
				same++
			}
		}
		// Floor so a customer who never bought this type still gets
		// a nonzero affinity.
		return common.Clamp(0.3+0.7*(same/float64(len(history))), 0, 1)
	}
	return defaultTypeAffinity(customer.RiskLevel, ptype)
}

func defaultTypeAffinity(level model.RiskLevel, ptype model.ProductType) float64 {
	conservative := level.Ordinal() <= 2
	aggressive := level.Ordinal() >= 4
	switch ptype {
	case model.TypeMoneyMarket:
		if conservative {
			return 0.9
		}
		return 0.6
	case model.TypeBond:
		return 0.7
	case model.TypeMixed:
		if conservative {
			return 0.4
		}
		return 0.7
	case model.TypeEquity:
		if aggressive {
			return 0.9
		}
		if conservative {
			return 0.2
		}
		return 0.5
	case model.TypeStructuredDeposit:
		if conservative {
			return 0.8
		}
		return 0.5
	default:
		return 0.5
	}
}

func stylePreference(customer *model.Customer, style model.RedemptionStyle) float64 {
	if style == model.RedeemAnytime {
		return 1.0
	}
	// Fixed windows bother retail customers more than corporates.
	if customer.Type == model.CustomerCorporate {
		return 0.8
	}
	return 0.6
}

func issuerAffinity(issuer string, history []model.PositionSummary) float64 {
	if issuer == "" || len(history) == 0 {
		return 0.5
	}
	var same float64
	for _, h := range history {
		if h.Issuer == issuer {
			same++
		}
	}
	return common.Clamp(0.4+0.6*(same/float64(len(history))), 0, 1)
}

func (pm *ProductMatcher) loadHistory(ctx context.Context, customerID string) []model.PositionSummary {
	history, err := pm.history.GetCustomerHistory(ctx, customerID, pm.lookback)
	if err != nil {
		pm.logger.Warn("history lookup failed, scoring without history",
			"customer_id", customerID, "error", err)
		return nil
	}
	return history
}

func regionAllowed(customer *model.Customer, regions []string) bool {
	for _, region := range regions {
		if region == customer.Region || region == customer.Province {
			return true
		}
	}
	return false
}

func phaseAllowed(phase model.WealthPhase, allowed []model.WealthPhase) bool {
	for _, p := range allowed {
		if p == phase {
			return true
		}
	}
	// Established and recalled customers are acceptable targets for any
	// phase-targeted campaign, at reduced constraint credit.
	return phase == model.PhaseEstablished || phase == model.PhaseRecall
}
