// Package engine implements the investment lifecycle simulation: product
// matching, purchase sizing and the daily redemption process.
package engine

import (
	"log/slog"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
)

// RiskCapacityModel maps a customer's declared risk tolerance and financial
// profile to the product risk categories they accept and the amount range
// they can reasonably invest. Pure lookup and arithmetic; no I/O.
type RiskCapacityModel struct {
	ladder map[model.RiskLevel]config.RiskLadderRung
	amount config.AmountConfig
	logger *slog.Logger
}

// NewRiskCapacityModel creates the model from resolved configuration.
func NewRiskCapacityModel(cfg config.Config, logger *slog.Logger) *RiskCapacityModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskCapacityModel{
		ladder: cfg.RiskLadder,
		amount: cfg.Amount,
		logger: logger,
	}
}

// AcceptableCategories returns the product risk categories the given
// tolerance level accepts. Levels missing from the ladder fall back to the
// default rung for that level so a configuration gap never empties the set.
func (m *RiskCapacityModel) AcceptableCategories(level model.RiskLevel) []model.RiskCategory {
	if rung, ok := m.ladder[level]; ok && len(rung.Acceptable) > 0 {
		return rung.Acceptable
	}
	m.logger.Warn("risk ladder missing level, using default rung", "risk_level", string(level))
	return config.Default().RiskLadder[normalizeLevel(level)].Acceptable
}

// Accepts reports whether the tolerance level accepts the given category.
func (m *RiskCapacityModel) Accepts(level model.RiskLevel, category model.RiskCategory) bool {
	for _, c := range m.AcceptableCategories(level) {
		if c == category {
			return true
		}
	}
	return false
}

// ConfidenceWeight returns the scoring multiplier for the level, in (0, 1].
func (m *RiskCapacityModel) ConfidenceWeight(level model.RiskLevel) float64 {
	if rung, ok := m.ladder[level]; ok && rung.Weight > 0 && rung.Weight <= 1 {
		return rung.Weight
	}
	return config.Default().RiskLadder[normalizeLevel(level)].Weight
}

// Capacity derives the bounded amount range for a customer from the
// per-type base table, widened for VIPs, scaled by risk tolerance and
// income tier, and blended against any existing wealth balance.
func (m *RiskCapacityModel) Capacity(customer *model.Customer) model.Capacity {
	base := m.amount.Personal
	if customer.Type == model.CustomerCorporate {
		base = m.amount.Corporate
	}

	minAmount := base.Min
	maxAmount := base.Max
	suggested := base.Mean

	if customer.IsVIP {
		vip := m.amount.VIPMultiplier
		if vip <= 1 {
			vip = 1.5
		}
		maxAmount *= vip
		suggested *= vip
	}

	risk := riskScale(customer.RiskLevel)
	maxAmount *= risk
	suggested *= risk

	income := incomeScale(customer.IncomeTier)
	maxAmount *= income
	suggested *= income

	// An existing wealth balance anchors what the customer actually
	// invests, so blend it in at half weight.
	if customer.WealthBalance > 0 {
		suggested = 0.5*suggested + 0.5*customer.WealthBalance
	}

	if maxAmount < minAmount {
		maxAmount = 1.5 * minAmount
	}
	suggested = common.Clamp(suggested, minAmount, maxAmount)

	return model.Capacity{
		MinAmount:       minAmount,
		MaxAmount:       maxAmount,
		SuggestedAmount: suggested,
	}
}

// riskScale narrows capacity for conservative customers and widens it for
// aggressive ones.
func riskScale(level model.RiskLevel) float64 {
	return 0.8 + 0.1*float64(level.Ordinal()-1)
}

func incomeScale(tier model.IncomeTier) float64 {
	switch tier {
	case model.IncomeLow:
		return 0.8
	case model.IncomeHigh:
		return 1.3
	default:
		return 1.0
	}
}

// normalizeLevel maps unknown levels onto the middle of the ladder so
// lookups against the default table always hit a rung.
func normalizeLevel(level model.RiskLevel) model.RiskLevel {
	switch level {
	case model.RiskR1, model.RiskR2, model.RiskR3, model.RiskR4, model.RiskR5:
		return level
	default:
		return model.RiskR3
	}
}
