package storage

import (
	"context"
	"fmt"

	"github.com/oakmont/wealthsim/internal/model"
)

// SaveEvents appends audit-trail rows in one transaction.
func (s *SQLiteStorage) SaveEvents(ctx context.Context, events []model.PositionEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO position_events (id, position_id, customer_id, event,
			old_status, new_status, amount, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range events {
		e := &events[i]
		if e.ID == "" || e.PositionID == "" {
			return fmt.Errorf("%w: event at index %d missing ID", ErrNilParameter, i)
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.PositionID, e.CustomerID, string(e.Kind),
			string(e.OldStatus), string(e.NewStatus), e.Amount, e.OccurredAt,
		); err != nil {
			return fmt.Errorf("failed to save event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// GetPositionEvents returns the audit trail for one position in order.
func (s *SQLiteStorage) GetPositionEvents(ctx context.Context, positionID string) ([]model.PositionEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(positionID, "positionID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position_id, customer_id, event, old_status, new_status,
			amount, occurred_at
		FROM position_events
		WHERE position_id = ?
		ORDER BY occurred_at, id`, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for position %s: %w", positionID, err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.PositionEvent
	for rows.Next() {
		var (
			e         model.PositionEvent
			kind      string
			oldStatus string
			newStatus string
		)
		if err := rows.Scan(&e.ID, &e.PositionID, &e.CustomerID, &kind,
			&oldStatus, &newStatus, &e.Amount, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = model.EventKind(kind)
		e.OldStatus = model.PositionStatus(oldStatus)
		e.NewStatus = model.PositionStatus(newStatus)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
