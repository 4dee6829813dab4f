package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
)

func newTestSimulator() *RedemptionSimulator {
	return NewRedemptionSimulator(config.Default().Redemption, nil)
}

func openPosition(purchase time.Time, months int) model.InvestmentPosition {
	return model.InvestmentPosition{
		ID:             "POS-1",
		CustomerID:     "CUS-1",
		ProductID:      "PRD-1",
		PurchaseAmount: 50000,
		HoldAmount:     50000,
		Status:         model.StatusHeld,
		PurchaseTime:   purchase,
		MaturityTime:   purchase.AddDate(0, months, 0),
	}
}

func TestDailyProbabilityRange(t *testing.T) {
	sim := newTestSimulator()
	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	customers := []model.Customer{
		{ID: "c1", Type: model.CustomerPersonal, RiskLevel: model.RiskR1, IsVIP: true},
		{ID: "c2", Type: model.CustomerPersonal, RiskLevel: model.RiskR3, DaysSinceActivity: 120},
		{ID: "c3", Type: model.CustomerCorporate, RiskLevel: model.RiskR5},
	}
	products := []model.Product{
		bondProduct("p1", model.RiskR1),
		bondProduct("p2", model.RiskR3),
	}
	products[0].Type = model.TypeMoneyMarket
	products[1].Type = model.TypeEquity
	products[1].RedemptionStyle = model.RedeemFixedWindow

	for _, customer := range customers {
		for _, product := range products {
			pos := openPosition(purchase, 12)
			// Sample days across the whole term, month boundaries included.
			for day := purchase; day.Before(pos.MaturityTime); day = day.AddDate(0, 0, 11) {
				p := sim.DailyProbability(&pos, &customer, &product, day)
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 0.5)
			}
		}
	}
}

func TestHoldingPeriodFactorShape(t *testing.T) {
	assert.InDelta(t, 0.2, holdingPeriodFactor(0.05), 1e-9)
	assert.InDelta(t, 0.8, holdingPeriodFactor(0.15), 1e-9)
	assert.InDelta(t, 1.2, holdingPeriodFactor(0.70), 1e-9)
	assert.InDelta(t, 1.5, holdingPeriodFactor(0.85), 1e-9)

	// Monotone non-decreasing over the whole term.
	prev := 0.0
	for f := 0.0; f <= 1.0; f += 0.01 {
		cur := holdingPeriodFactor(f)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestPartialBelowMinimumEscalates(t *testing.T) {
	cfg := config.Default().Redemption
	cfg.PartialRangeMin = 0.3
	cfg.PartialRangeMax = 0.3000001 // pin the draw at ratio 0.3
	sim := NewRedemptionSimulator(cfg, nil)

	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	pos := openPosition(purchase, 12)
	customer := model.Customer{ID: "CUS-1", Type: model.CustomerPersonal, RiskLevel: model.RiskR3}
	product := bondProduct("PRD-1", model.RiskR3)
	product.MinimumInvestment = 40000

	// 50000 × 0.3 = 15000 redeemed leaves 35000, below the 40000 minimum.
	delta := sim.partialRedeem(common.NewRand(1), &pos, &customer, &product, purchase.AddDate(0, 6, 0))
	assert.Nil(t, delta, "sub-minimum remainder must escalate to full redemption")
}

func TestPartialAboveMinimumSucceeds(t *testing.T) {
	cfg := config.Default().Redemption
	cfg.PartialRangeMin = 0.3
	cfg.PartialRangeMax = 0.3000001
	sim := NewRedemptionSimulator(cfg, nil)

	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	pos := openPosition(purchase, 12)
	customer := model.Customer{ID: "CUS-1", Type: model.CustomerPersonal, RiskLevel: model.RiskR3}
	product := bondProduct("PRD-1", model.RiskR3)
	product.MinimumInvestment = 10000

	delta := sim.partialRedeem(common.NewRand(1), &pos, &customer, &product, purchase.AddDate(0, 6, 0))
	require.NotNil(t, delta)
	assert.Equal(t, model.StatusPartiallyRedeemed, delta.NewStatus)
	assert.InDelta(t, 15000, delta.RedeemedAmount, 100)
	assert.Equal(t, pos.HoldAmount, delta.NewHoldAmount+delta.RedeemedAmount)
	assert.GreaterOrEqual(t, delta.NewHoldAmount, product.MinimumInvestment)
}

func TestEvaluateDayInvariants(t *testing.T) {
	sim := newTestSimulator()
	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	customer := model.Customer{ID: "CUS-1", Type: model.CustomerPersonal, RiskLevel: model.RiskR4}
	product := bondProduct("PRD-1", model.RiskR4)
	product.Type = model.TypeMoneyMarket // most liquid, most transitions
	product.MinimumInvestment = 10000

	// Walk many independent position lifetimes and check every emitted
	// delta respects the state machine.
	for seed := int64(0); seed < 50; seed++ {
		rng := common.NewRand(seed)
		pos := openPosition(purchase, 6)
		for day := purchase; !day.After(pos.MaturityTime); day = day.AddDate(0, 0, 1) {
			delta := sim.EvaluateDay(rng, &pos, &customer, &product, day)
			if delta == nil {
				continue
			}

			assert.Equal(t, pos.Status, delta.OldStatus)
			assert.Less(t, delta.NewHoldAmount, pos.HoldAmount, "hold amount must decrease")
			assert.GreaterOrEqual(t, delta.NewHoldAmount, 0.0)

			switch delta.NewStatus {
			case model.StatusFullyRedeemed:
				assert.Zero(t, delta.NewHoldAmount)
				require.NotNil(t, delta.FullRedeemTime)
			case model.StatusPartiallyRedeemed:
				assert.GreaterOrEqual(t, delta.NewHoldAmount, product.MinimumInvestment,
					"no sub-minimum balance may persist")
			default:
				t.Fatalf("unexpected transition to %s", delta.NewStatus)
			}

			// Apply the delta the way the persistence layer would.
			pos.HoldAmount = delta.NewHoldAmount
			pos.Status = delta.NewStatus
			pos.FullRedeemTime = delta.FullRedeemTime
			if pos.Status.Terminal() {
				break
			}
		}
	}
}

func TestMaturityAlwaysFires(t *testing.T) {
	sim := newTestSimulator()
	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	customer := model.Customer{ID: "CUS-1", Type: model.CustomerPersonal, RiskLevel: model.RiskR1, IsVIP: true}
	product := bondProduct("PRD-1", model.RiskR1)

	pos := openPosition(purchase, 3)
	maturity := pos.MaturityTime

	// Every seed, including ones that would never draw a voluntary
	// redemption, must still close the position at maturity.
	for seed := int64(0); seed < 20; seed++ {
		p := pos
		delta := sim.EvaluateDay(common.NewRand(seed), &p, &customer, &product, maturity)
		require.NotNil(t, delta, "seed %d", seed)
		assert.True(t, delta.Maturity)
		assert.Equal(t, model.StatusFullyRedeemed, delta.NewStatus)
		assert.Zero(t, delta.NewHoldAmount)
	}
}

func TestForceMaturitySkipsOpenAndTerminal(t *testing.T) {
	sim := newTestSimulator()
	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

	open := openPosition(purchase, 12)
	assert.Nil(t, sim.ForceMaturity(&open, purchase.AddDate(0, 1, 0)),
		"position before maturity must not be closed")

	closedAt := purchase.AddDate(0, 12, 0)
	terminal := openPosition(purchase, 12)
	terminal.Status = model.StatusFullyRedeemed
	terminal.HoldAmount = 0
	terminal.FullRedeemTime = &closedAt
	assert.Nil(t, sim.ForceMaturity(&terminal, closedAt.AddDate(0, 1, 0)),
		"terminal position must never transition again")
}

func TestEvaluateDayDeterminism(t *testing.T) {
	sim := newTestSimulator()
	purchase := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	customer := model.Customer{ID: "CUS-1", Type: model.CustomerCorporate, RiskLevel: model.RiskR5}
	product := bondProduct("PRD-1", model.RiskR5)
	product.Type = model.TypeMoneyMarket

	run := func() []model.PositionDelta {
		var deltas []model.PositionDelta
		pos := openPosition(purchase, 6)
		for day := purchase; !day.After(pos.MaturityTime); day = day.AddDate(0, 0, 1) {
			rng := common.NewRand(common.SubSeed(42, pos.ID+"@"+day.Format("2006-01-02")))
			delta := sim.EvaluateDay(rng, &pos, &customer, &product, day)
			if delta == nil {
				continue
			}
			deltas = append(deltas, *delta)
			pos.HoldAmount = delta.NewHoldAmount
			pos.Status = delta.NewStatus
			pos.FullRedeemTime = delta.FullRedeemTime
			if pos.Status.Terminal() {
				break
			}
		}
		return deltas
	}

	assert.Equal(t, run(), run(), "same seed and inputs must replay identically")
}

func TestRedeemTimestampWithinDay(t *testing.T) {
	sim := newTestSimulator()
	rng := common.NewRand(5)
	day := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	customer := model.Customer{ID: "CUS-1", Type: model.CustomerPersonal}

	for i := 0; i < 200; i++ {
		at := sim.redeemTimestamp(rng, day, &customer)
		assert.Equal(t, day.Year(), at.Year())
		assert.Equal(t, day.Month(), at.Month())
		assert.Equal(t, day.Day(), at.Day())
	}
}

func TestEvaluateDaySkipsBeforePurchase(t *testing.T) {
	sim := newTestSimulator()
	customer := model.Customer{ID: "c1", Type: model.CustomerPersonal, RiskLevel: model.RiskR3}
	product := bondProduct("p1", model.RiskR3)
	purchase := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pos := openPosition(purchase, 12)

	// Days before the purchase never redeem, whatever the draw.
	for _, offset := range []int{-30, -7, -1} {
		day := purchase.AddDate(0, 0, offset)
		assert.Zero(t, sim.DailyProbability(&pos, &customer, &product, day))
		for seed := int64(0); seed < 50; seed++ {
			assert.Nil(t, sim.EvaluateDay(common.NewRand(seed), &pos, &customer, &product, day))
		}
	}

	// A same-day redemption never predates the purchase moment.
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := config.Default().Redemption
	cfg.BaseDailyProb = 0.5
	hot := NewRedemptionSimulator(cfg, nil)
	redeemed := 0
	for seed := int64(0); seed < 200; seed++ {
		p := openPosition(purchase, 12)
		delta := hot.EvaluateDay(common.NewRand(seed), &p, &customer, &product, day)
		if delta == nil {
			continue
		}
		redeemed++
		assert.False(t, delta.OccurredAt.Before(purchase),
			"redemption at %s predates purchase at %s", delta.OccurredAt, purchase)
		if delta.FullRedeemTime != nil {
			assert.False(t, delta.FullRedeemTime.Before(purchase))
		}
	}
	require.Positive(t, redeemed, "raised base probability must trigger some redemptions")
}
