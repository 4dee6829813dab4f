package model

import (
	"fmt"
	"time"
)

// PositionStatus is the lifecycle state of an investment position.
type PositionStatus string

// Position statuses. A position only moves forward: Held may become
// PartiallyRedeemed or FullyRedeemed; PartiallyRedeemed may become
// FullyRedeemed; FullyRedeemed is terminal.
const (
	StatusHeld              PositionStatus = "held"
	StatusPartiallyRedeemed PositionStatus = "partially_redeemed"
	StatusFullyRedeemed     PositionStatus = "fully_redeemed"
)

// Terminal reports whether no further transitions are possible.
func (s PositionStatus) Terminal() bool {
	return s == StatusFullyRedeemed
}

// InvestmentPosition is a single customer's holding in one product, tracked
// from purchase to terminal redemption. Owned by the lifecycle engine until
// it reaches a terminal state.
type InvestmentPosition struct {
	PurchaseTime   time.Time
	MaturityTime   time.Time
	FullRedeemTime *time.Time

	ID         string
	CustomerID string
	ProductID  string
	AccountID  string
	Channel    string

	PurchaseAmount float64
	HoldAmount     float64
	ExpectedReturn float64

	Status PositionStatus
}

// Validate checks the position's internal invariants.
func (p *InvestmentPosition) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("position missing ID")
	}
	if p.CustomerID == "" || p.ProductID == "" {
		return fmt.Errorf("position %s missing customer or product reference", p.ID)
	}
	if p.PurchaseAmount <= 0 {
		return fmt.Errorf("position %s has non-positive purchase amount %.2f", p.ID, p.PurchaseAmount)
	}
	if p.HoldAmount < 0 || p.HoldAmount > p.PurchaseAmount {
		return fmt.Errorf("position %s hold amount %.2f outside [0, %.2f]", p.ID, p.HoldAmount, p.PurchaseAmount)
	}
	if p.Status == StatusFullyRedeemed {
		if p.HoldAmount != 0 {
			return fmt.Errorf("position %s fully redeemed with non-zero hold amount %.2f", p.ID, p.HoldAmount)
		}
		if p.FullRedeemTime == nil {
			return fmt.Errorf("position %s fully redeemed without redeem time", p.ID)
		}
	}
	if p.Status != StatusFullyRedeemed && p.HoldAmount == 0 {
		return fmt.Errorf("position %s has zero hold amount but status %s", p.ID, p.Status)
	}
	if !p.MaturityTime.IsZero() && p.MaturityTime.Before(p.PurchaseTime) {
		return fmt.Errorf("position %s matures %s before purchase %s",
			p.ID, p.MaturityTime.Format(time.RFC3339), p.PurchaseTime.Format(time.RFC3339))
	}
	if p.FullRedeemTime != nil && p.FullRedeemTime.Before(p.PurchaseTime) {
		return fmt.Errorf("position %s redeemed %s before purchase %s",
			p.ID, p.FullRedeemTime.Format(time.RFC3339), p.PurchaseTime.Format(time.RFC3339))
	}
	return nil
}

// Matured reports whether the position has reached its maturity date.
func (p *InvestmentPosition) Matured(on time.Time) bool {
	return !p.MaturityTime.IsZero() && !on.Before(p.MaturityTime)
}

// ElapsedTermFraction returns how far through its term the position is on the
// given date, in [0, 1]. Zero-length terms count as fully elapsed.
func (p *InvestmentPosition) ElapsedTermFraction(on time.Time) float64 {
	total := p.MaturityTime.Sub(p.PurchaseTime)
	if total <= 0 {
		return 1
	}
	f := float64(on.Sub(p.PurchaseTime)) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// PositionDelta carries only the fields of a position that changed during a
// transition. Applied atomically to its own position by the persistence layer.
type PositionDelta struct {
	FullRedeemTime *time.Time
	OccurredAt     time.Time

	PositionID string
	CustomerID string
	ProductID  string

	OldStatus PositionStatus
	NewStatus PositionStatus

	RedeemedAmount float64
	NewHoldAmount  float64

	// Maturity marks a forced end-of-term redemption as opposed to a
	// voluntary early one.
	Maturity bool
}

// PositionSummary is the compact history row the matcher and sizer read.
type PositionSummary struct {
	PurchaseTime   time.Time
	ProductID      string
	ProductType    ProductType
	Issuer         string
	RiskCategory   RiskCategory
	Status         PositionStatus
	PurchaseAmount float64
}
