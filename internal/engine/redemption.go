package engine

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
)

// RedemptionSimulator owns the per-day stochastic process that decides, for
// each open position, whether it partially redeems, fully redeems, or
// survives to the next day, and forces full redemption at maturity.
type RedemptionSimulator struct {
	cfg    config.RedemptionConfig
	logger *slog.Logger
}

// NewRedemptionSimulator creates a simulator from resolved configuration.
func NewRedemptionSimulator(cfg config.RedemptionConfig, logger *slog.Logger) *RedemptionSimulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedemptionSimulator{cfg: cfg, logger: logger}
}

// EvaluateDay runs the daily decision for one open position on the given
// day. It returns nil when nothing happens. A position at or past maturity
// is always fully redeemed regardless of the probabilistic draw. The caller
// supplies a per-position RNG for reproducible parallel runs.
func (rs *RedemptionSimulator) EvaluateDay(rng *rand.Rand, pos *model.InvestmentPosition, customer *model.Customer, product *model.Product, day time.Time) *model.PositionDelta {
	if pos.Status.Terminal() {
		return nil
	}
	if day.Before(startOfDay(pos.PurchaseTime)) {
		// Not yet purchased on this day; nothing can happen to it.
		return nil
	}
	if pos.Matured(day) {
		return rs.ForceMaturity(pos, day)
	}

	p := rs.DailyProbability(pos, customer, product, day)
	if rng.Float64() >= p {
		return nil
	}

	if rs.decidePartial(rng, pos, customer, product, day) {
		if delta := rs.partialRedeem(rng, pos, customer, product, day); delta != nil {
			return delta
		}
	}
	return rs.fullRedeem(rng, pos, customer, day, false)
}

// DailyProbability computes the early-redemption probability for one day as
// the product of the base rate and the holding-period, customer, product and
// market factors, clamped to [0, 0.5].
func (rs *RedemptionSimulator) DailyProbability(pos *model.InvestmentPosition, customer *model.Customer, product *model.Product, day time.Time) float64 {
	if day.Before(startOfDay(pos.PurchaseTime)) {
		return 0
	}
	p := rs.cfg.BaseDailyProb
	p *= holdingPeriodFactor(pos.ElapsedTermFraction(day))
	p *= rs.customerFactor(customer)
	p *= rs.productFactor(pos, product)
	p *= marketFactor(day)
	return common.Clamp(p, 0, 0.5)
}

// holdingPeriodFactor shapes probability over the life of the position: low
// in the first 15% of the term, ramping through the middle, and a high
// plateau past 70% as maturity approaches.
func holdingPeriodFactor(elapsed float64) float64 {
	switch {
	case elapsed < 0.15:
		return 0.2
	case elapsed <= 0.70:
		// Linear ramp from 0.8 to 1.2 across the middle of the term.
		return 0.8 + 0.4*(elapsed-0.15)/0.55
	default:
		return 1.5
	}
}

// customerFactor combines customer type, VIP status, risk tolerance and a
// dormancy discount, clamped to [0.5, 2.0].
func (rs *RedemptionSimulator) customerFactor(customer *model.Customer) float64 {
	factor := 1.0
	if customer.Type == model.CustomerCorporate {
		factor *= rs.cfg.CorporateFactor
	} else if customer.IsVIP {
		factor *= rs.cfg.VIPFactor
	}

	// Conservative holders sit tight; aggressive ones churn.
	factor *= 0.7 + 0.15*float64(customer.RiskLevel.Ordinal()-1)

	if rs.cfg.DormantDays > 0 && customer.DaysSinceActivity >= rs.cfg.DormantDays {
		factor *= rs.cfg.DormantFactor
	}

	return common.Clamp(factor, 0.5, 2.0)
}

// productFactor combines product-type liquidity, redemption style and a
// ticket-size adjustment, clamped to [0.5, 2.0].
func (rs *RedemptionSimulator) productFactor(pos *model.InvestmentPosition, product *model.Product) float64 {
	factor, ok := rs.cfg.ProductTypeFactors[product.Type]
	if !ok {
		factor = 1.0
	}

	if product.RedemptionStyle == model.RedeemFixedWindow {
		factor *= 0.7
	}

	// Large tickets redeem less readily.
	switch {
	case pos.HoldAmount >= 1_000_000:
		factor *= 0.7
	case pos.HoldAmount >= 100_000:
		factor *= 0.85
	}

	return common.Clamp(factor, 0.5, 2.0)
}

// marketFactor approximates month-start/month-end liquidity demand and a
// year-end bump, clamped to [0.5, 1.5].
func marketFactor(day time.Time) float64 {
	factor := 1.0
	switch d := day.Day(); {
	case d <= 3:
		factor *= 1.2
	case d >= 26:
		factor *= 1.3
	}
	switch day.Month() {
	case time.January, time.December:
		factor *= 1.2
	case time.June:
		factor *= 1.1
	}
	return common.Clamp(factor, 0.5, 1.5)
}

// decidePartial picks partial over full redemption. Large tickets, corporate
// holders, long remaining terms and VIPs skew partial; aggressive risk
// tolerance skews full. Net probability clamped to [0.1, 0.9].
func (rs *RedemptionSimulator) decidePartial(rng *rand.Rand, pos *model.InvestmentPosition, customer *model.Customer, product *model.Product, day time.Time) bool {
	p := rs.cfg.PartialProb
	if pos.HoldAmount >= 100_000 {
		p += 0.15
	}
	if customer.Type == model.CustomerCorporate {
		p += 0.10
	}
	if pos.ElapsedTermFraction(day) < 0.5 {
		p += 0.10
	}
	if customer.IsVIP {
		p += 0.05
	}
	if customer.RiskLevel.Ordinal() >= 4 {
		p -= 0.15
	}
	return rng.Float64() < common.Clamp(p, 0.1, 0.9)
}

// partialRedeem draws the redemption fraction and builds the delta. It
// returns nil when the draw must escalate to a full redemption: a remaining
// balance below the product's minimum investment may not persist.
func (rs *RedemptionSimulator) partialRedeem(rng *rand.Rand, pos *model.InvestmentPosition, customer *model.Customer, product *model.Product, day time.Time) *model.PositionDelta {
	ratio := rs.cfg.PartialRangeMin + rng.Float64()*(rs.cfg.PartialRangeMax-rs.cfg.PartialRangeMin)
	amount := roundTo(pos.HoldAmount*ratio, redeemDenomination(customer))
	if amount < rs.cfg.MinRedemption {
		amount = rs.cfg.MinRedemption
	}
	if amount >= pos.HoldAmount {
		return nil
	}

	remaining := pos.HoldAmount - amount
	if remaining < product.MinimumInvestment {
		return nil
	}

	return &model.PositionDelta{
		PositionID:     pos.ID,
		CustomerID:     pos.CustomerID,
		ProductID:      pos.ProductID,
		OldStatus:      pos.Status,
		NewStatus:      model.StatusPartiallyRedeemed,
		RedeemedAmount: amount,
		NewHoldAmount:  remaining,
		OccurredAt:     rs.redeemTimeFor(rng, pos, customer, day),
	}
}

func (rs *RedemptionSimulator) fullRedeem(rng *rand.Rand, pos *model.InvestmentPosition, customer *model.Customer, day time.Time, maturity bool) *model.PositionDelta {
	at := rs.redeemTimeFor(rng, pos, customer, day)
	return &model.PositionDelta{
		PositionID:     pos.ID,
		CustomerID:     pos.CustomerID,
		ProductID:      pos.ProductID,
		OldStatus:      pos.Status,
		NewStatus:      model.StatusFullyRedeemed,
		RedeemedAmount: pos.HoldAmount,
		NewHoldAmount:  0,
		FullRedeemTime: &at,
		OccurredAt:     at,
		Maturity:       maturity,
	}
}

// ForceMaturity builds the mandatory end-of-term redemption for a position
// that is still open on or after its maturity date. Not subject to the
// probabilistic draw; the payout lands at end of business.
func (rs *RedemptionSimulator) ForceMaturity(pos *model.InvestmentPosition, day time.Time) *model.PositionDelta {
	if pos.Status.Terminal() || !pos.Matured(day) {
		return nil
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, day.Location())
	return &model.PositionDelta{
		PositionID:     pos.ID,
		CustomerID:     pos.CustomerID,
		ProductID:      pos.ProductID,
		OldStatus:      pos.Status,
		NewStatus:      model.StatusFullyRedeemed,
		RedeemedAmount: pos.HoldAmount,
		NewHoldAmount:  0,
		FullRedeemTime: &at,
		OccurredAt:     at,
		Maturity:       true,
	}
}

// redeemTimeFor draws the intraday redemption time for a position, never
// earlier than its own purchase moment on a same-day redemption.
func (rs *RedemptionSimulator) redeemTimeFor(rng *rand.Rand, pos *model.InvestmentPosition, customer *model.Customer, day time.Time) time.Time {
	at := rs.redeemTimestamp(rng, day, customer)
	if at.Before(pos.PurchaseTime) {
		at = pos.PurchaseTime
	}
	return at
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// redeemTimestamp draws an intraday time skewed toward business hours, with
// an 80/20 split between typical and atypical hours for the segment.
func (rs *RedemptionSimulator) redeemTimestamp(rng *rand.Rand, day time.Time, customer *model.Customer) time.Time {
	var hour int
	if rng.Float64() < 0.8 {
		// Corporates transact mid-morning, retail around lunch and
		// early evening.
		peak := 14
		if customer != nil && customer.Type == model.CustomerCorporate {
			peak = 10
		}
		hour = peak + rng.Intn(5) - 2
	} else {
		hour = 7 + rng.Intn(15)
	}
	if hour < 0 {
		hour = 0
	}
	if hour > 23 {
		hour = 23
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		hour, rng.Intn(60), rng.Intn(60), 0, day.Location())
}

func redeemDenomination(customer *model.Customer) float64 {
	if customer == nil {
		return 100
	}
	if customer.Type == model.CustomerCorporate {
		return 1000
	}
	return 100
}
