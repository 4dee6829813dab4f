package engine

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/model"
)

// AmountSizer derives a single purchase amount for a matched product from
// the customer's capacity, risk fit and purchase history.
type AmountSizer struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewAmountSizer creates a sizer drawing perturbations from rng.
func NewAmountSizer(rng *rand.Rand, logger *slog.Logger) *AmountSizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AmountSizer{rng: rng, logger: logger}
}

// SizePurchase returns the purchase amount, always within the capacity range
// and never below the product's minimum investment.
func (az *AmountSizer) SizePurchase(customer *model.Customer, product *model.Product, capacity model.Capacity, history []model.PositionSummary) float64 {
	factor := az.positionFactor(customer, product, capacity, history)
	amount := capacity.MinAmount + factor*(capacity.MaxAmount-capacity.MinAmount)

	denom := denomination(customer)
	amount = roundTo(amount, denom)
	amount += az.perturbation(amount)
	amount = roundTo(amount, denom)

	amount = common.Clamp(amount, capacity.MinAmount, capacity.MaxAmount)
	if amount < product.MinimumInvestment {
		amount = product.MinimumInvestment
	}
	return math.Round(amount*100) / 100
}

// positionFactor blends the segment base preference with a risk-match
// multiplier and a history component, clamped to [0.1, 0.9] so the amount
// never pins to either end of the range.
func (az *AmountSizer) positionFactor(customer *model.Customer, product *model.Product, capacity model.Capacity, history []model.PositionSummary) float64 {
	base := 0.5
	switch {
	case customer.Type == model.CustomerCorporate:
		base = 0.7
	case customer.IsVIP:
		base = 0.6
	}

	distance := customer.RiskLevel.Ordinal() - product.RiskLevel.Ordinal()
	if distance < 0 {
		distance = -distance
	}
	var riskMatch float64
	switch distance {
	case 0:
		riskMatch = 1.2
	case 1:
		riskMatch = 1.0
	case 2:
		riskMatch = 0.8
	default:
		riskMatch = 0.5
	}

	return common.Clamp(base*riskMatch+historyFactor(capacity, history), 0.1, 0.9)
}

// historyFactor nudges the factor up for customers whose typical ticket sits
// high in their range, in [0, 0.3] with a mid default absent history.
func historyFactor(capacity model.Capacity, history []model.PositionSummary) float64 {
	if len(history) == 0 {
		return 0.15
	}
	var total float64
	for _, h := range history {
		total += h.PurchaseAmount
	}
	avg := total / float64(len(history))
	span := capacity.MaxAmount - capacity.MinAmount
	if span <= 0 {
		return 0.15
	}
	relative := common.Clamp((avg-capacity.MinAmount)/span, 0, 1)
	return 0.3 * relative
}

// denomination picks the round-number granularity for the segment.
func denomination(customer *model.Customer) float64 {
	switch {
	case customer.Type == model.CustomerCorporate:
		return 10000
	case customer.IsVIP:
		return 5000
	default:
		return 1000
	}
}

// perturbation draws a bounded random offset, relatively smaller for larger
// amounts so big tickets stay close to round numbers.
func (az *AmountSizer) perturbation(amount float64) float64 {
	deviation := 0.15
	switch {
	case amount >= 1_000_000:
		deviation = 0.05
	case amount >= 100_000:
		deviation = 0.10
	}
	return amount * deviation * (az.rng.Float64()*2 - 1)
}

// ExpectedReturn computes the return amount quoted at purchase. Small short
// positions accrue simple interest; large or long ones compound monthly,
// matching how these products are marketed.
func ExpectedReturn(amount, annualYield float64, months int) float64 {
	if amount <= 0 || annualYield <= 0 || months <= 0 {
		return 0
	}
	var ret float64
	if amount >= 1_000_000 || months >= 24 {
		ret = amount * (math.Pow(1+annualYield/12, float64(months)) - 1)
	} else {
		ret = amount * annualYield * float64(months) / 12
	}
	return math.Round(ret*100) / 100
}

func roundTo(amount, denom float64) float64 {
	if denom <= 0 {
		return amount
	}
	return math.Round(amount/denom) * denom
}
