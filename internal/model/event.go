package model

import "time"

// EventKind names a position lifecycle transition for the audit trail.
type EventKind string

// Event kinds.
const (
	EventPurchase       EventKind = "purchase"
	EventPartialRedeem  EventKind = "partial_redeem"
	EventFullRedeem     EventKind = "full_redeem"
	EventMaturityRedeem EventKind = "maturity_redeem"
)

// PositionEvent is one row of the append-only audit trail. Events are
// derived from transitions, never edited after the fact.
type PositionEvent struct {
	OccurredAt time.Time

	ID         string
	PositionID string
	CustomerID string

	Kind      EventKind
	OldStatus PositionStatus
	NewStatus PositionStatus

	Amount float64
}
