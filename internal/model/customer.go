// Package model defines the typed records shared across the simulation:
// customers, products, investment positions and the values derived from them.
package model

import "time"

// CustomerType distinguishes retail from corporate customers.
type CustomerType string

// Customer types.
const (
	CustomerPersonal  CustomerType = "personal"
	CustomerCorporate CustomerType = "corporate"
)

// RiskLevel is the customer-side risk tolerance ladder, R1 most conservative.
type RiskLevel string

// Risk tolerance levels.
const (
	RiskR1 RiskLevel = "R1"
	RiskR2 RiskLevel = "R2"
	RiskR3 RiskLevel = "R3"
	RiskR4 RiskLevel = "R4"
	RiskR5 RiskLevel = "R5"
)

// Ordinal returns the 1-based position of the level on the ladder.
// Unknown levels map to R3, the middle of the ladder.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskR1:
		return 1
	case RiskR2:
		return 2
	case RiskR3:
		return 3
	case RiskR4:
		return 4
	case RiskR5:
		return 5
	default:
		return 3
	}
}

// WealthPhase describes where a customer sits in the wealth-product lifecycle.
type WealthPhase string

// Wealth customer phases.
const (
	PhaseRegistered    WealthPhase = "registered"
	PhaseFirstPurchase WealthPhase = "first_purchase"
	PhaseEstablished   WealthPhase = "established"
	PhaseRecall        WealthPhase = "recall"
	PhaseLost          WealthPhase = "lost"
)

// IncomeTier buckets customers by income for capacity scaling.
type IncomeTier string

// Income tiers.
const (
	IncomeLow    IncomeTier = "low"
	IncomeMedium IncomeTier = "medium"
	IncomeHigh   IncomeTier = "high"
)

// Customer is a read-only snapshot of a customer profile. The engine never
// mutates it; profile updates belong to the external CDP writers.
type Customer struct {
	RegisteredAt      time.Time
	ID                string
	Type              CustomerType
	RiskLevel         RiskLevel
	IncomeTier        IncomeTier
	WealthPhase       WealthPhase
	Region            string
	Province          string
	FirstPurchaseType string

	TotalAssets   float64
	Savings       float64
	WealthBalance float64
	MonthlyIncome float64

	DaysSinceActivity int
	IsVIP             bool
}
