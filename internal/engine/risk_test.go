package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/model"
)

func TestAcceptableCategoriesMonotone(t *testing.T) {
	rcm := NewRiskCapacityModel(config.Default(), nil)

	levels := []model.RiskLevel{model.RiskR1, model.RiskR2, model.RiskR3, model.RiskR4, model.RiskR5}
	for i := 1; i < len(levels); i++ {
		lower := rcm.AcceptableCategories(levels[i-1])
		higher := rcm.AcceptableCategories(levels[i])

		set := make(map[model.RiskCategory]bool, len(higher))
		for _, c := range higher {
			set[c] = true
		}
		for _, c := range lower {
			assert.True(t, set[c],
				"%s accepts %s but %s does not", levels[i-1], c, levels[i])
		}
	}
}

func TestAcceptableCategoriesUnknownLevel(t *testing.T) {
	rcm := NewRiskCapacityModel(config.Default(), nil)

	categories := rcm.AcceptableCategories(model.RiskLevel("R9"))
	require.NotEmpty(t, categories)
	assert.Equal(t, rcm.AcceptableCategories(model.RiskR3), categories)
}

func TestCapacityBounds(t *testing.T) {
	rcm := NewRiskCapacityModel(config.Default(), nil)

	tests := []struct {
		name     string
		customer model.Customer
	}{
		{"conservative retail", model.Customer{ID: "c1", Type: model.CustomerPersonal, RiskLevel: model.RiskR1}},
		{"aggressive retail", model.Customer{ID: "c2", Type: model.CustomerPersonal, RiskLevel: model.RiskR5}},
		{"vip retail", model.Customer{ID: "c3", Type: model.CustomerPersonal, RiskLevel: model.RiskR3, IsVIP: true}},
		{"corporate", model.Customer{ID: "c4", Type: model.CustomerCorporate, RiskLevel: model.RiskR3}},
		{"low income", model.Customer{ID: "c5", Type: model.CustomerPersonal, RiskLevel: model.RiskR2, IncomeTier: model.IncomeLow}},
		{"high income with balance", model.Customer{ID: "c6", Type: model.CustomerPersonal, RiskLevel: model.RiskR4, IncomeTier: model.IncomeHigh, WealthBalance: 300000}},
		{"corporate with big balance", model.Customer{ID: "c7", Type: model.CustomerCorporate, RiskLevel: model.RiskR5, WealthBalance: 8000000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capacity := rcm.Capacity(&tt.customer)
			assert.Greater(t, capacity.MinAmount, 0.0)
			assert.LessOrEqual(t, capacity.MinAmount, capacity.SuggestedAmount)
			assert.LessOrEqual(t, capacity.SuggestedAmount, capacity.MaxAmount)
		})
	}
}

func TestCapacityVIPWidens(t *testing.T) {
	rcm := NewRiskCapacityModel(config.Default(), nil)

	base := model.Customer{ID: "c1", Type: model.CustomerPersonal, RiskLevel: model.RiskR3}
	vip := base
	vip.IsVIP = true

	baseCapacity := rcm.Capacity(&base)
	vipCapacity := rcm.Capacity(&vip)

	assert.GreaterOrEqual(t, vipCapacity.MaxAmount, baseCapacity.MaxAmount)
	assert.GreaterOrEqual(t, vipCapacity.SuggestedAmount, baseCapacity.SuggestedAmount)
}

func TestCapacityRiskOrdering(t *testing.T) {
	rcm := NewRiskCapacityModel(config.Default(), nil)

	conservative := model.Customer{ID: "c1", Type: model.CustomerPersonal, RiskLevel: model.RiskR1}
	aggressive := model.Customer{ID: "c2", Type: model.CustomerPersonal, RiskLevel: model.RiskR5}

	assert.Greater(t,
		rcm.Capacity(&aggressive).MaxAmount,
		rcm.Capacity(&conservative).MaxAmount)
}

func TestConfidenceWeightDomain(t *testing.T) {
	rcm := NewRiskCapacityModel(config.Default(), nil)

	for _, level := range []model.RiskLevel{model.RiskR1, model.RiskR2, model.RiskR3, model.RiskR4, model.RiskR5, "R7"} {
		w := rcm.ConfidenceWeight(level)
		assert.Greater(t, w, 0.0, "level %s", level)
		assert.LessOrEqual(t, w, 1.0, "level %s", level)
	}
}
