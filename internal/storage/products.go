package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/model"
)

const productColumns = `id, name, issuer, risk_level, product_type, redemption_style,
	investment_period_months, expected_yield, minimum_investment,
	vip_only, corporate_only, personal_only, allowed_regions, allowed_phases,
	per_customer_cap, marketing_active, launch_date, end_date`

// SaveProducts inserts or replaces catalog products in bulk.
func (s *SQLiteStorage) SaveProducts(ctx context.Context, products []model.Product) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(products) == 0 {
		return fmt.Errorf("%w: products", ErrEmptySlice)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range products {
		p := &products[i]
		if p.ID == "" {
			return fmt.Errorf("%w: product at index %d missing ID", ErrNilParameter, i)
		}
		regions, err := marshalStrings(p.AllowedRegions)
		if err != nil {
			return fmt.Errorf("failed to encode regions for product %s: %w", p.ID, err)
		}
		phases, err := marshalPhases(p.AllowedPhases)
		if err != nil {
			return fmt.Errorf("failed to encode phases for product %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Issuer, string(p.RiskLevel), string(p.Type),
			string(p.RedemptionStyle), p.InvestmentPeriodMonths, p.ExpectedYield,
			p.MinimumInvestment, p.VIPOnly, p.CorporateOnly, p.PersonalOnly,
			regions, phases, p.PerCustomerCap, p.MarketingActive,
			nullTime(p.LaunchDate), nullTime(p.EndDate),
		); err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetProduct fetches a single product by ID.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return p, nil
}

// GetProductsAvailable returns marketed products whose sale window overlaps
// [from, to]. Finer per-customer constraints are applied by the matcher.
func (s *SQLiteStorage) GetProductsAvailable(ctx context.Context, from, to time.Time) ([]model.Product, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE marketing_active = 1
		  AND (launch_date IS NULL OR launch_date <= ?)
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id`, to, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p          model.Product
		ptype      string
		risk       string
		style      string
		regions    sql.NullString
		phases     sql.NullString
		launchDate sql.NullTime
		endDate    sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &p.Issuer, &risk, &ptype, &style,
		&p.InvestmentPeriodMonths, &p.ExpectedYield, &p.MinimumInvestment,
		&p.VIPOnly, &p.CorporateOnly, &p.PersonalOnly,
		&regions, &phases, &p.PerCustomerCap, &p.MarketingActive,
		&launchDate, &endDate)
	if err != nil {
		return nil, err
	}
	p.Type = model.ProductType(ptype)
	p.RiskLevel = model.RiskLevel(risk)
	p.RedemptionStyle = model.RedemptionStyle(style)
	if regions.Valid && regions.String != "" {
		if err := json.Unmarshal([]byte(regions.String), &p.AllowedRegions); err != nil {
			return nil, fmt.Errorf("failed to decode regions: %w", err)
		}
	}
	if phases.Valid && phases.String != "" {
		if err := json.Unmarshal([]byte(phases.String), &p.AllowedPhases); err != nil {
			return nil, fmt.Errorf("failed to decode phases: %w", err)
		}
	}
	if launchDate.Valid {
		p.LaunchDate = launchDate.Time
	}
	if endDate.Valid {
		p.EndDate = endDate.Time
	}
	return &p, nil
}

func marshalStrings(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalPhases(phases []model.WealthPhase) (any, error) {
	if len(phases) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(phases)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
