// Package events turns position transitions into audit-trail rows.
package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oakmont/wealthsim/internal/model"
)

// Store is the slice of the persistence layer the recorder writes through.
type Store interface {
	SaveEvents(ctx context.Context, events []model.PositionEvent) error
}

// Recorder implements service.EventSink by appending one audit row per
// transition. Write failures are logged and swallowed: the audit trail must
// never block the lifecycle engine.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a recorder writing through the given store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// PositionOpened records the purchase event for a new position.
func (r *Recorder) PositionOpened(ctx context.Context, pos model.InvestmentPosition) {
	event := model.PositionEvent{
		ID:         uuid.New().String(),
		PositionID: pos.ID,
		CustomerID: pos.CustomerID,
		Kind:       model.EventPurchase,
		NewStatus:  pos.Status,
		Amount:     pos.PurchaseAmount,
		OccurredAt: pos.PurchaseTime,
	}
	r.record(ctx, event)
}

// PositionChanged records the redemption event behind a transition.
func (r *Recorder) PositionChanged(ctx context.Context, delta model.PositionDelta) {
	event := model.PositionEvent{
		ID:         uuid.New().String(),
		PositionID: delta.PositionID,
		CustomerID: delta.CustomerID,
		Kind:       kindFor(delta),
		OldStatus:  delta.OldStatus,
		NewStatus:  delta.NewStatus,
		Amount:     delta.RedeemedAmount,
		OccurredAt: delta.OccurredAt,
	}
	r.record(ctx, event)
}

func (r *Recorder) record(ctx context.Context, event model.PositionEvent) {
	if err := r.store.SaveEvents(ctx, []model.PositionEvent{event}); err != nil {
		r.logger.Warn("failed to record position event",
			"position_id", event.PositionID,
			"event", string(event.Kind),
			"error", err)
	}
}

func kindFor(delta model.PositionDelta) model.EventKind {
	switch {
	case delta.Maturity:
		return model.EventMaturityRedeem
	case delta.NewStatus == model.StatusFullyRedeemed:
		return model.EventFullRedeem
	default:
		return model.EventPartialRedeem
	}
}
