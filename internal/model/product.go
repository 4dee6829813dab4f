package model

import "time"

// RiskCategory is the product-side risk bucket derived from a product's
// R-level: R1/R2 are low, R3 medium, R4/R5 high.
type RiskCategory string

// Product risk categories.
const (
	CategoryLow    RiskCategory = "low"
	CategoryMedium RiskCategory = "medium"
	CategoryHigh   RiskCategory = "high"
)

// ProductType is the product's asset-class bucket.
type ProductType string

// Product types.
const (
	TypeMoneyMarket       ProductType = "money_market"
	TypeBond              ProductType = "bond"
	TypeMixed             ProductType = "mixed"
	TypeEquity            ProductType = "equity"
	TypeStructuredDeposit ProductType = "structured_deposit"
)

// RedemptionStyle describes when a product allows voluntary redemption.
type RedemptionStyle string

// Redemption styles.
const (
	RedeemAnytime     RedemptionStyle = "anytime"
	RedeemFixedWindow RedemptionStyle = "fixed_window"
)

// Product is a read-only snapshot of a wealth-management product.
type Product struct {
	LaunchDate time.Time
	EndDate    time.Time

	ID              string
	Name            string
	Issuer          string
	RiskLevel       RiskLevel
	Type            ProductType
	RedemptionStyle RedemptionStyle

	InvestmentPeriodMonths int
	ExpectedYield          float64
	MinimumInvestment      float64

	// Optional constraints. Zero values mean "unconstrained".
	VIPOnly         bool
	AllowedRegions  []string
	AllowedPhases   []WealthPhase
	PerCustomerCap  int
	CorporateOnly   bool
	PersonalOnly    bool
	MarketingActive bool
}

// RiskCategory maps the product's R-level onto the low/medium/high bucket.
func (p *Product) RiskCategory() RiskCategory {
	switch p.RiskLevel {
	case RiskR1, RiskR2:
		return CategoryLow
	case RiskR3:
		return CategoryMedium
	case RiskR4, RiskR5:
		return CategoryHigh
	default:
		return CategoryLow
	}
}

// AvailableOn reports whether the product can be sold on the given date.
func (p *Product) AvailableOn(date time.Time) bool {
	if !p.MarketingActive {
		return false
	}
	if !p.LaunchDate.IsZero() && date.Before(p.LaunchDate) {
		return false
	}
	if !p.EndDate.IsZero() && date.After(p.EndDate) {
		return false
	}
	return true
}
