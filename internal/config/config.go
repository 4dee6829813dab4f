// Package config defines the fully-resolved, immutable configuration the
// simulation components receive at construction time. The CLI layer loads
// overrides with viper, overlays them onto Default() and normalizes the
// result; nothing below the CLI reads configuration lazily.
package config

import "github.com/oakmont/wealthsim/internal/model"

// RiskLadderRung maps one customer risk level to the product risk categories
// it accepts and the confidence weight applied when scoring that acceptance.
type RiskLadderRung struct {
	Acceptable []model.RiskCategory `mapstructure:"acceptable"`
	Weight     float64              `mapstructure:"weight"`
}

// AmountRange is the base purchase-amount envelope for one customer segment.
type AmountRange struct {
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	Mean float64 `mapstructure:"mean"`
}

// AmountConfig holds the per-type amount tables and the VIP widening factor.
type AmountConfig struct {
	Personal      AmountRange `mapstructure:"personal"`
	Corporate     AmountRange `mapstructure:"corporate"`
	VIPMultiplier float64     `mapstructure:"vip_multiplier"`
}

// TermBucket is one band of the product-term distribution.
type TermBucket struct {
	Ratio  float64 `mapstructure:"ratio"`
	Months []int   `mapstructure:"months"`
}

// TermDistribution describes how product terms spread across bands. Ratios
// are normalized to sum to 1 during resolution.
type TermDistribution struct {
	Short  TermBucket `mapstructure:"short"`
	Medium TermBucket `mapstructure:"medium"`
	Long   TermBucket `mapstructure:"long"`
}

// YieldRange bounds the annualized expected yield for one risk category.
type YieldRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// RiskDistribution is the share of the catalog in each risk category,
// normalized to sum to 1 during resolution.
type RiskDistribution struct {
	Low    float64 `mapstructure:"low"`
	Medium float64 `mapstructure:"medium"`
	High   float64 `mapstructure:"high"`
}

// ExpectedReturnConfig holds per-category yield ranges plus term add-ons.
type ExpectedReturnConfig struct {
	Low              YieldRange       `mapstructure:"low"`
	Medium           YieldRange       `mapstructure:"medium"`
	High             YieldRange       `mapstructure:"high"`
	MediumTermBonus  float64          `mapstructure:"medium_term_bonus"`
	LongTermBonus    float64          `mapstructure:"long_term_bonus"`
	RiskDistribution RiskDistribution `mapstructure:"risk_distribution"`
}

// RedemptionConfig parameterizes the daily redemption process.
type RedemptionConfig struct {
	// BaseDailyProb is the per-day early-redemption probability before any
	// factor is applied. Valid domain (0, 0.05]; out-of-domain values reset
	// to the default.
	BaseDailyProb float64 `mapstructure:"base_daily_prob"`

	// PartialProb is the base probability that a redemption hit is partial
	// rather than full.
	PartialProb float64 `mapstructure:"partial_prob"`

	// PartialRange bounds the fraction of hold amount a partial redemption
	// takes. Must satisfy 0 < min < max <= 1.
	PartialRangeMin float64 `mapstructure:"partial_range_min"`
	PartialRangeMax float64 `mapstructure:"partial_range_max"`

	// MinRedemption floors the absolute amount of a partial redemption.
	MinRedemption float64 `mapstructure:"min_redemption"`

	// ProductTypeFactors scale the daily probability by product liquidity.
	ProductTypeFactors map[model.ProductType]float64 `mapstructure:"product_type_factors"`

	// VIPFactor discounts the probability for VIP retail customers;
	// CorporateFactor raises it for corporates.
	VIPFactor       float64 `mapstructure:"vip_factor"`
	CorporateFactor float64 `mapstructure:"corporate_factor"`

	// DormantDays is the inactivity threshold beyond which a customer's
	// redemption probability is discounted, and DormantFactor the discount.
	DormantDays   int     `mapstructure:"dormant_days"`
	DormantFactor float64 `mapstructure:"dormant_factor"`
}

// SystemConfig carries run-level parameters.
type SystemConfig struct {
	RandomSeed           int64 `mapstructure:"random_seed"`
	BatchSize            int   `mapstructure:"batch_size"`
	HistoryLookback      int   `mapstructure:"history_lookback"`
	MatchLimit           int   `mapstructure:"match_limit"`
	RealtimeLookbackDays int   `mapstructure:"realtime_lookback_days"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the complete resolved configuration.
type Config struct {
	RiskLadder     map[model.RiskLevel]RiskLadderRung `mapstructure:"risk_ladder"`
	Amount         AmountConfig                       `mapstructure:"amount"`
	Terms          TermDistribution                   `mapstructure:"terms"`
	ExpectedReturn ExpectedReturnConfig               `mapstructure:"expected_return"`
	Redemption     RedemptionConfig                   `mapstructure:"redemption"`
	System         SystemConfig                       `mapstructure:"system"`
	Database       DatabaseConfig                     `mapstructure:"database"`
	Logging        LoggingConfig                      `mapstructure:"logging"`
}

// Default returns the documented baseline configuration. Every recovery path
// in normalization falls back to these values.
func Default() Config {
	cfg := Config{
		RiskLadder: map[model.RiskLevel]RiskLadderRung{
			model.RiskR1: {Acceptable: []model.RiskCategory{model.CategoryLow}, Weight: 1.0},
			model.RiskR2: {Acceptable: []model.RiskCategory{model.CategoryLow}, Weight: 0.9},
			model.RiskR3: {Acceptable: []model.RiskCategory{model.CategoryLow, model.CategoryMedium}, Weight: 0.8},
			model.RiskR4: {Acceptable: []model.RiskCategory{model.CategoryLow, model.CategoryMedium, model.CategoryHigh}, Weight: 0.7},
			model.RiskR5: {Acceptable: []model.RiskCategory{model.CategoryLow, model.CategoryMedium, model.CategoryHigh}, Weight: 0.6},
		},
		Amount: AmountConfig{
			Personal:      AmountRange{Min: 10000, Max: 200000, Mean: 50000},
			Corporate:     AmountRange{Min: 100000, Max: 2000000, Mean: 500000},
			VIPMultiplier: 1.5,
		},
		Terms: TermDistribution{
			Short:  TermBucket{Ratio: 0.35, Months: []int{1, 2, 3}},
			Medium: TermBucket{Ratio: 0.45, Months: []int{4, 6, 9, 12}},
			Long:   TermBucket{Ratio: 0.20, Months: []int{18, 24, 36}},
		},
		ExpectedReturn: ExpectedReturnConfig{
			Low:             YieldRange{Min: 0.030, Max: 0.045},
			Medium:          YieldRange{Min: 0.045, Max: 0.070},
			High:            YieldRange{Min: 0.070, Max: 0.120},
			MediumTermBonus: 0.010,
			LongTermBonus:   0.015,
		},
		Redemption: RedemptionConfig{
			BaseDailyProb:   0.01,
			PartialProb:     0.4,
			PartialRangeMin: 0.2,
			PartialRangeMax: 0.7,
			MinRedemption:   100,
			ProductTypeFactors: map[model.ProductType]float64{
				model.TypeMoneyMarket:       2.0,
				model.TypeBond:              1.2,
				model.TypeMixed:             1.0,
				model.TypeEquity:            0.8,
				model.TypeStructuredDeposit: 0.5,
			},
			VIPFactor:       0.8,
			CorporateFactor: 1.3,
			DormantDays:     90,
			DormantFactor:   0.7,
		},
		System: SystemConfig{
			RandomSeed:           42,
			BatchSize:            1000,
			HistoryLookback:      20,
			MatchLimit:           10,
			RealtimeLookbackDays: 7,
		},
		Database: DatabaseConfig{},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
	cfg.ExpectedReturn.RiskDistribution = RiskDistribution{Low: 0.45, Medium: 0.35, High: 0.20}
	return cfg
}
