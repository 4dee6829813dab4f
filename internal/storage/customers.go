package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/model"
)

const customerColumns = `id, customer_type, risk_level, income_tier, wealth_phase,
	region, province, first_purchase_type, total_assets, savings, wealth_balance,
	monthly_income, days_since_activity, is_vip, registered_at`

// SaveCustomers inserts or replaces customer profiles in bulk.
func (s *SQLiteStorage) SaveCustomers(ctx context.Context, customers []model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(customers) == 0 {
		return fmt.Errorf("%w: customers", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare customer insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range customers {
		c := &customers[i]
		if c.ID == "" {
			return fmt.Errorf("%w: customer at index %d missing ID", ErrNilParameter, i)
		}
		if _, err := stmt.ExecContext(ctx,
			c.ID, string(c.Type), string(c.RiskLevel), string(c.IncomeTier),
			string(c.WealthPhase), c.Region, c.Province, c.FirstPurchaseType,
			c.TotalAssets, c.Savings, c.WealthBalance, c.MonthlyIncome,
			c.DaysSinceActivity, c.IsVIP, nullTime(c.RegisteredAt),
		); err != nil {
			return fmt.Errorf("failed to save customer %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetCustomer fetches a single customer profile.
func (s *SQLiteStorage) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}
	return c, nil
}

// GetCustomers fetches customers by ID, skipping unknown IDs.
func (s *SQLiteStorage) GetCustomers(ctx context.Context, ids []string) ([]model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCustomers(rows)
}

// GetAllCustomers returns every stored customer profile.
func (s *SQLiteStorage) GetAllCustomers(ctx context.Context) ([]model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectCustomers(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var (
		c            model.Customer
		ctype        string
		risk         string
		tier         sql.NullString
		phase        sql.NullString
		registeredAt sql.NullTime
	)
	err := row.Scan(&c.ID, &ctype, &risk, &tier, &phase,
		&c.Region, &c.Province, &c.FirstPurchaseType,
		&c.TotalAssets, &c.Savings, &c.WealthBalance, &c.MonthlyIncome,
		&c.DaysSinceActivity, &c.IsVIP, &registeredAt)
	if err != nil {
		return nil, err
	}
	c.Type = model.CustomerType(ctype)
	c.RiskLevel = model.RiskLevel(risk)
	if tier.Valid {
		c.IncomeTier = model.IncomeTier(tier.String)
	}
	if phase.Valid {
		c.WealthPhase = model.WealthPhase(phase.String)
	}
	if registeredAt.Valid {
		c.RegisteredAt = registeredAt.Time
	}
	return &c, nil
}

func collectCustomers(rows *sql.Rows) ([]model.Customer, error) {
	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
