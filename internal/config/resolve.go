package config

import (
	"log/slog"

	"github.com/oakmont/wealthsim/internal/model"
)

// Resolve normalizes a merged configuration. A missing table or an
// out-of-domain value is never fatal: it is replaced with the documented
// default and logged as a warning. The returned value is safe to hand to
// every component constructor.
func Resolve(cfg Config) Config {
	def := Default()

	if len(cfg.RiskLadder) == 0 {
		slog.Warn("risk ladder missing, using default mapping")
		cfg.RiskLadder = def.RiskLadder
	} else {
		for _, level := range []model.RiskLevel{model.RiskR1, model.RiskR2, model.RiskR3, model.RiskR4, model.RiskR5} {
			rung, ok := cfg.RiskLadder[level]
			if !ok || len(rung.Acceptable) == 0 {
				slog.Warn("risk ladder rung missing, using default", "level", level)
				cfg.RiskLadder[level] = def.RiskLadder[level]
				continue
			}
			if rung.Weight <= 0 || rung.Weight > 1 {
				slog.Warn("risk ladder weight out of (0,1], using default",
					"level", level, "weight", rung.Weight)
				rung.Weight = def.RiskLadder[level].Weight
				cfg.RiskLadder[level] = rung
			}
		}
	}

	cfg.Amount.Personal = resolveAmountRange(cfg.Amount.Personal, def.Amount.Personal, "personal")
	cfg.Amount.Corporate = resolveAmountRange(cfg.Amount.Corporate, def.Amount.Corporate, "corporate")
	if cfg.Amount.VIPMultiplier <= 1 {
		slog.Warn("vip multiplier must exceed 1, using default", "value", cfg.Amount.VIPMultiplier)
		cfg.Amount.VIPMultiplier = def.Amount.VIPMultiplier
	}

	cfg.Terms = resolveTerms(cfg.Terms, def.Terms)

	cfg.ExpectedReturn.Low = resolveYieldRange(cfg.ExpectedReturn.Low, def.ExpectedReturn.Low, "low")
	cfg.ExpectedReturn.Medium = resolveYieldRange(cfg.ExpectedReturn.Medium, def.ExpectedReturn.Medium, "medium")
	cfg.ExpectedReturn.High = resolveYieldRange(cfg.ExpectedReturn.High, def.ExpectedReturn.High, "high")
	cfg.ExpectedReturn.RiskDistribution = resolveRiskDistribution(
		cfg.ExpectedReturn.RiskDistribution, def.ExpectedReturn.RiskDistribution)

	cfg.Redemption = resolveRedemption(cfg.Redemption, def.Redemption)

	if cfg.System.BatchSize <= 0 {
		cfg.System.BatchSize = def.System.BatchSize
	}
	if cfg.System.HistoryLookback <= 0 {
		cfg.System.HistoryLookback = def.System.HistoryLookback
	}
	if cfg.System.MatchLimit <= 0 {
		cfg.System.MatchLimit = def.System.MatchLimit
	}
	if cfg.System.RealtimeLookbackDays <= 0 {
		cfg.System.RealtimeLookbackDays = def.System.RealtimeLookbackDays
	}

	return cfg
}

func resolveAmountRange(r, def AmountRange, segment string) AmountRange {
	if r.Min <= 0 || r.Max <= 0 || r.Min >= r.Max {
		slog.Warn("amount range invalid, using default", "segment", segment, "min", r.Min, "max", r.Max)
		return def
	}
	if r.Mean < r.Min || r.Mean > r.Max {
		slog.Warn("amount mean outside range, recentering", "segment", segment, "mean", r.Mean)
		r.Mean = (r.Min + r.Max) / 2
	}
	return r
}

func resolveTerms(t, def TermDistribution) TermDistribution {
	if len(t.Short.Months) == 0 {
		t.Short = def.Short
	}
	if len(t.Medium.Months) == 0 {
		t.Medium = def.Medium
	}
	if len(t.Long.Months) == 0 {
		t.Long = def.Long
	}

	total := t.Short.Ratio + t.Medium.Ratio + t.Long.Ratio
	if total <= 0 {
		slog.Warn("term distribution ratios non-positive, using defaults")
		t.Short.Ratio = def.Short.Ratio
		t.Medium.Ratio = def.Medium.Ratio
		t.Long.Ratio = def.Long.Ratio
		return t
	}
	if total < 0.99 || total > 1.01 {
		slog.Warn("term distribution ratios do not sum to 1, normalizing", "sum", total)
		t.Short.Ratio /= total
		t.Medium.Ratio /= total
		t.Long.Ratio /= total
	}
	return t
}

func resolveYieldRange(r, def YieldRange, category string) YieldRange {
	if r.Min < 0 || r.Max <= 0 || r.Min >= r.Max {
		slog.Warn("yield range invalid, using default", "category", category, "min", r.Min, "max", r.Max)
		return def
	}
	return r
}

func resolveRiskDistribution(d, def RiskDistribution) RiskDistribution {
	total := d.Low + d.Medium + d.High
	if total <= 0 {
		return def
	}
	if total < 0.99 || total > 1.01 {
		slog.Warn("risk distribution does not sum to 1, normalizing", "sum", total)
		d.Low /= total
		d.Medium /= total
		d.High /= total
	}
	return d
}

func resolveRedemption(r, def RedemptionConfig) RedemptionConfig {
	if r.BaseDailyProb <= 0 || r.BaseDailyProb > 0.05 {
		slog.Warn("base daily redemption probability out of (0,0.05], using default", "value", r.BaseDailyProb)
		r.BaseDailyProb = def.BaseDailyProb
	}
	if r.PartialProb <= 0 || r.PartialProb >= 1 {
		slog.Warn("partial redemption probability out of (0,1), using default", "value", r.PartialProb)
		r.PartialProb = def.PartialProb
	}
	if r.PartialRangeMin <= 0 || r.PartialRangeMax > 1 || r.PartialRangeMin >= r.PartialRangeMax {
		slog.Warn("partial redemption range invalid, using default",
			"min", r.PartialRangeMin, "max", r.PartialRangeMax)
		r.PartialRangeMin = def.PartialRangeMin
		r.PartialRangeMax = def.PartialRangeMax
	}
	if r.MinRedemption <= 0 {
		r.MinRedemption = def.MinRedemption
	}
	if len(r.ProductTypeFactors) == 0 {
		slog.Warn("product type redemption factors missing, using defaults")
		r.ProductTypeFactors = def.ProductTypeFactors
	}
	if r.VIPFactor <= 0 {
		r.VIPFactor = def.VIPFactor
	}
	if r.CorporateFactor <= 0 {
		r.CorporateFactor = def.CorporateFactor
	}
	if r.DormantDays <= 0 {
		r.DormantDays = def.DormantDays
	}
	if r.DormantFactor <= 0 || r.DormantFactor > 1 {
		r.DormantFactor = def.DormantFactor
	}
	return r
}
