package config

import "github.com/oakmont/wealthsim/internal/model"

// Merge overlays an override onto a base configuration, field by field. Zero
// values in the override leave the base value in place, so a partial YAML
// file only touches what it names. The merged result still passes through
// Resolve before use.
func Merge(base, override Config) Config {
	out := base

	if len(override.RiskLadder) > 0 {
		ladder := make(map[model.RiskLevel]RiskLadderRung, len(base.RiskLadder))
		for level, rung := range base.RiskLadder {
			ladder[level] = rung
		}
		for level, rung := range override.RiskLadder {
			merged := ladder[level]
			if len(rung.Acceptable) > 0 {
				merged.Acceptable = rung.Acceptable
			}
			if rung.Weight > 0 {
				merged.Weight = rung.Weight
			}
			ladder[level] = merged
		}
		out.RiskLadder = ladder
	}

	out.Amount.Personal = mergeAmountRange(base.Amount.Personal, override.Amount.Personal)
	out.Amount.Corporate = mergeAmountRange(base.Amount.Corporate, override.Amount.Corporate)
	if override.Amount.VIPMultiplier > 0 {
		out.Amount.VIPMultiplier = override.Amount.VIPMultiplier
	}

	out.Terms.Short = mergeTermBucket(base.Terms.Short, override.Terms.Short)
	out.Terms.Medium = mergeTermBucket(base.Terms.Medium, override.Terms.Medium)
	out.Terms.Long = mergeTermBucket(base.Terms.Long, override.Terms.Long)

	out.ExpectedReturn.Low = mergeYieldRange(base.ExpectedReturn.Low, override.ExpectedReturn.Low)
	out.ExpectedReturn.Medium = mergeYieldRange(base.ExpectedReturn.Medium, override.ExpectedReturn.Medium)
	out.ExpectedReturn.High = mergeYieldRange(base.ExpectedReturn.High, override.ExpectedReturn.High)
	if override.ExpectedReturn.MediumTermBonus > 0 {
		out.ExpectedReturn.MediumTermBonus = override.ExpectedReturn.MediumTermBonus
	}
	if override.ExpectedReturn.LongTermBonus > 0 {
		out.ExpectedReturn.LongTermBonus = override.ExpectedReturn.LongTermBonus
	}
	if d := override.ExpectedReturn.RiskDistribution; d.Low > 0 || d.Medium > 0 || d.High > 0 {
		out.ExpectedReturn.RiskDistribution = d
	}

	out.Redemption = mergeRedemption(base.Redemption, override.Redemption)

	if override.System.RandomSeed != 0 {
		out.System.RandomSeed = override.System.RandomSeed
	}
	if override.System.BatchSize > 0 {
		out.System.BatchSize = override.System.BatchSize
	}
	if override.System.HistoryLookback > 0 {
		out.System.HistoryLookback = override.System.HistoryLookback
	}
	if override.System.MatchLimit > 0 {
		out.System.MatchLimit = override.System.MatchLimit
	}
	if override.System.RealtimeLookbackDays > 0 {
		out.System.RealtimeLookbackDays = override.System.RealtimeLookbackDays
	}

	if override.Database.Path != "" {
		out.Database.Path = override.Database.Path
	}
	if override.Logging.Level != "" {
		out.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		out.Logging.Format = override.Logging.Format
	}

	return out
}

func mergeAmountRange(base, override AmountRange) AmountRange {
	if override.Min > 0 {
		base.Min = override.Min
	}
	if override.Max > 0 {
		base.Max = override.Max
	}
	if override.Mean > 0 {
		base.Mean = override.Mean
	}
	return base
}

func mergeTermBucket(base, override TermBucket) TermBucket {
	if override.Ratio > 0 {
		base.Ratio = override.Ratio
	}
	if len(override.Months) > 0 {
		base.Months = override.Months
	}
	return base
}

func mergeYieldRange(base, override YieldRange) YieldRange {
	if override.Min > 0 {
		base.Min = override.Min
	}
	if override.Max > 0 {
		base.Max = override.Max
	}
	return base
}

func mergeRedemption(base, override RedemptionConfig) RedemptionConfig {
	if override.BaseDailyProb != 0 {
		base.BaseDailyProb = override.BaseDailyProb
	}
	if override.PartialProb != 0 {
		base.PartialProb = override.PartialProb
	}
	if override.PartialRangeMin != 0 {
		base.PartialRangeMin = override.PartialRangeMin
	}
	if override.PartialRangeMax != 0 {
		base.PartialRangeMax = override.PartialRangeMax
	}
	if override.MinRedemption > 0 {
		base.MinRedemption = override.MinRedemption
	}
	if len(override.ProductTypeFactors) > 0 {
		factors := make(map[model.ProductType]float64, len(base.ProductTypeFactors))
		for k, v := range base.ProductTypeFactors {
			factors[k] = v
		}
		for k, v := range override.ProductTypeFactors {
			factors[k] = v
		}
		base.ProductTypeFactors = factors
	}
	if override.VIPFactor > 0 {
		base.VIPFactor = override.VIPFactor
	}
	if override.CorporateFactor > 0 {
		base.CorporateFactor = override.CorporateFactor
	}
	if override.DormantDays > 0 {
		base.DormantDays = override.DormantDays
	}
	if override.DormantFactor > 0 {
		base.DormantFactor = override.DormantFactor
	}
	return base
}
