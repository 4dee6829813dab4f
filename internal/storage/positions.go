package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakmont/wealthsim/internal/model"
	"github.com/oakmont/wealthsim/internal/service"
)

const positionColumns = `id, customer_id, product_id, account_id, channel,
	purchase_amount, hold_amount, expected_return, status,
	purchase_time, maturity_time, full_redeem_time`

// SavePositions persists freshly opened positions in one transaction.
func (s *SQLiteStorage) SavePositions(ctx context.Context, positions []model.InvestmentPosition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePositions(positions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (`+positionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare position insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range positions {
		p := &positions[i]
		var redeemTime any
		if p.FullRedeemTime != nil {
			redeemTime = *p.FullRedeemTime
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.CustomerID, p.ProductID, p.AccountID, p.Channel,
			p.PurchaseAmount, p.HoldAmount, p.ExpectedReturn, string(p.Status),
			p.PurchaseTime, p.MaturityTime, redeemTime,
		); err != nil {
			return fmt.Errorf("failed to save position %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// LoadOpenPositions returns positions that have not reached a terminal
// state, oldest purchase first.
func (s *SQLiteStorage) LoadOpenPositions(ctx context.Context, filter service.PositionFilter) ([]model.InvestmentPosition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + positionColumns + ` FROM positions WHERE status != ?`
	args := []any{string(model.StatusFullyRedeemed)}
	if filter.CustomerID != "" {
		query += " AND customer_id = ?"
		args = append(args, filter.CustomerID)
	}
	if filter.ProductID != "" {
		query += " AND product_id = ?"
		args = append(args, filter.ProductID)
	}
	query += " ORDER BY purchase_time, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var positions []model.InvestmentPosition
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	return positions, nil
}

// ApplyTransitions applies a batch of state transitions atomically and
// returns the number of positions updated. Each delta is validated against
// the stored row so a stale delta cannot move a position backwards.
func (s *SQLiteStorage) ApplyTransitions(ctx context.Context, deltas []model.PositionDelta) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(deltas) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	updateStmt, err := tx.PrepareContext(ctx, `
		UPDATE positions
		SET hold_amount = ?, status = ?, full_redeem_time = ?
		WHERE id = ? AND status = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare position update: %w", err)
	}
	defer func() { _ = updateStmt.Close() }()

	applied := 0
	for i := range deltas {
		d := &deltas[i]
		if err := validateDelta(d); err != nil {
			return 0, err
		}
		var redeemTime any
		if d.FullRedeemTime != nil {
			redeemTime = *d.FullRedeemTime
		}
		res, err := updateStmt.ExecContext(ctx,
			d.NewHoldAmount, string(d.NewStatus), redeemTime,
			d.PositionID, string(d.OldStatus))
		if err != nil {
			return 0, fmt.Errorf("failed to update position %s: %w", d.PositionID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to check update of position %s: %w", d.PositionID, err)
		}
		applied += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transitions: %w", err)
	}
	return applied, nil
}

// GetCustomerHistory returns the customer's most recent positions joined with
// the product attributes the matcher and sizer score against.
func (s *SQLiteStorage) GetCustomerHistory(ctx context.Context, customerID string, limit int) ([]model.PositionSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pos.product_id, pos.purchase_amount, pos.status, pos.purchase_time,
		       p.product_type, p.issuer, p.risk_level
		FROM positions pos
		JOIN products p ON p.id = pos.product_id
		WHERE pos.customer_id = ?
		ORDER BY pos.purchase_time DESC, pos.id DESC
		LIMIT ?`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for customer %s: %w", customerID, err)
	}
	defer func() { _ = rows.Close() }()

	var history []model.PositionSummary
	for rows.Next() {
		var (
			sum    model.PositionSummary
			status string
			ptype  string
			risk   string
		)
		if err := rows.Scan(&sum.ProductID, &sum.PurchaseAmount, &status,
			&sum.PurchaseTime, &ptype, &sum.Issuer, &risk); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		sum.Status = model.PositionStatus(status)
		sum.ProductType = model.ProductType(ptype)
		product := model.Product{RiskLevel: model.RiskLevel(risk)}
		sum.RiskCategory = product.RiskCategory()
		history = append(history, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return history, nil
}

// CountCustomerPositions counts how many positions a customer holds in a
// product, for per-customer cap checks.
func (s *SQLiteStorage) CountCustomerPositions(ctx context.Context, customerID, productID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(customerID, "customerID"); err != nil {
		return 0, err
	}
	if err := validateString(productID, "productID"); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM positions
		WHERE customer_id = ? AND product_id = ?`, customerID, productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count positions for customer %s: %w", customerID, err)
	}
	return count, nil
}

func scanPosition(row rowScanner) (*model.InvestmentPosition, error) {
	var (
		p          model.InvestmentPosition
		status     string
		redeemTime sql.NullTime
	)
	err := row.Scan(&p.ID, &p.CustomerID, &p.ProductID, &p.AccountID, &p.Channel,
		&p.PurchaseAmount, &p.HoldAmount, &p.ExpectedReturn, &status,
		&p.PurchaseTime, &p.MaturityTime, &redeemTime)
	if err != nil {
		return nil, err
	}
	p.Status = model.PositionStatus(status)
	if redeemTime.Valid {
		t := redeemTime.Time
		p.FullRedeemTime = &t
	}
	return &p, nil
}
