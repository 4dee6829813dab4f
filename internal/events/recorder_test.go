package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/wealthsim/internal/model"
)

type captureStore struct {
	events []model.PositionEvent
	err    error
}

func (c *captureStore) SaveEvents(_ context.Context, events []model.PositionEvent) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, events...)
	return nil
}

func TestPositionOpenedRecordsPurchase(t *testing.T) {
	store := &captureStore{}
	recorder := NewRecorder(store, nil)

	purchase := time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC)
	recorder.PositionOpened(context.Background(), model.InvestmentPosition{
		ID:             "POS-1",
		CustomerID:     "CUS-1",
		ProductID:      "PRD-1",
		PurchaseAmount: 50000,
		HoldAmount:     50000,
		Status:         model.StatusHeld,
		PurchaseTime:   purchase,
	})

	require.Len(t, store.events, 1)
	event := store.events[0]
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "POS-1", event.PositionID)
	assert.Equal(t, model.EventPurchase, event.Kind)
	assert.Equal(t, model.StatusHeld, event.NewStatus)
	assert.Equal(t, 50000.0, event.Amount)
	assert.True(t, purchase.Equal(event.OccurredAt))
}

func TestPositionChangedEventKinds(t *testing.T) {
	at := time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		delta model.PositionDelta
		want  model.EventKind
	}{
		{
			name: "partial redemption",
			delta: model.PositionDelta{
				PositionID: "POS-1", OldStatus: model.StatusHeld,
				NewStatus: model.StatusPartiallyRedeemed, RedeemedAmount: 20000, OccurredAt: at,
			},
			want: model.EventPartialRedeem,
		},
		{
			name: "voluntary full redemption",
			delta: model.PositionDelta{
				PositionID: "POS-1", OldStatus: model.StatusHeld,
				NewStatus: model.StatusFullyRedeemed, RedeemedAmount: 50000, OccurredAt: at,
			},
			want: model.EventFullRedeem,
		},
		{
			name: "maturity redemption",
			delta: model.PositionDelta{
				PositionID: "POS-1", OldStatus: model.StatusPartiallyRedeemed,
				NewStatus: model.StatusFullyRedeemed, RedeemedAmount: 30000,
				OccurredAt: at, Maturity: true,
			},
			want: model.EventMaturityRedeem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &captureStore{}
			recorder := NewRecorder(store, nil)

			recorder.PositionChanged(context.Background(), tt.delta)

			require.Len(t, store.events, 1)
			assert.Equal(t, tt.want, store.events[0].Kind)
			assert.Equal(t, tt.delta.RedeemedAmount, store.events[0].Amount)
		})
	}
}

func TestRecorderSwallowsWriteFailures(t *testing.T) {
	recorder := NewRecorder(&captureStore{err: assert.AnError}, nil)

	// Must not panic or propagate; the lifecycle engine never blocks on
	// the audit trail.
	recorder.PositionChanged(context.Background(), model.PositionDelta{
		PositionID: "POS-1",
		NewStatus:  model.StatusFullyRedeemed,
	})
}
