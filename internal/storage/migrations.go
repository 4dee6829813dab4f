package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS customers (
					id TEXT PRIMARY KEY,
					customer_type TEXT NOT NULL,
					risk_level TEXT NOT NULL,
					income_tier TEXT,
					wealth_phase TEXT,
					region TEXT,
					province TEXT,
					first_purchase_type TEXT,
					total_assets REAL DEFAULT 0,
					savings REAL DEFAULT 0,
					wealth_balance REAL DEFAULT 0,
					monthly_income REAL DEFAULT 0,
					days_since_activity INTEGER DEFAULT 0,
					is_vip BOOLEAN DEFAULT 0,
					registered_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_customers_type ON customers(customer_type)`,

				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					name TEXT,
					issuer TEXT,
					risk_level TEXT NOT NULL,
					product_type TEXT NOT NULL,
					redemption_style TEXT NOT NULL,
					investment_period_months INTEGER NOT NULL,
					expected_yield REAL NOT NULL,
					minimum_investment REAL NOT NULL,
					vip_only BOOLEAN DEFAULT 0,
					corporate_only BOOLEAN DEFAULT 0,
					personal_only BOOLEAN DEFAULT 0,
					allowed_regions TEXT,
					allowed_phases TEXT,
					per_customer_cap INTEGER DEFAULT 0,
					marketing_active BOOLEAN DEFAULT 1,
					launch_date DATETIME,
					end_date DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_products_risk ON products(risk_level)`,

				`CREATE TABLE IF NOT EXISTS positions (
					id TEXT PRIMARY KEY,
					customer_id TEXT NOT NULL,
					product_id TEXT NOT NULL,
					account_id TEXT,
					channel TEXT,
					purchase_amount REAL NOT NULL,
					hold_amount REAL NOT NULL,
					expected_return REAL DEFAULT 0,
					status TEXT NOT NULL,
					purchase_time DATETIME NOT NULL,
					maturity_time DATETIME NOT NULL,
					full_redeem_time DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (customer_id) REFERENCES customers(id),
					FOREIGN KEY (product_id) REFERENCES products(id)
				)`,
				`CREATE INDEX idx_positions_customer ON positions(customer_id)`,
				`CREATE INDEX idx_positions_status ON positions(status)`,
				`CREATE INDEX idx_positions_maturity ON positions(maturity_time)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add transition events for auditing",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS position_events (
					id TEXT PRIMARY KEY,
					position_id TEXT NOT NULL,
					customer_id TEXT NOT NULL,
					event TEXT NOT NULL,
					old_status TEXT,
					new_status TEXT,
					amount REAL DEFAULT 0,
					occurred_at DATETIME NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (position_id) REFERENCES positions(id)
				)`,
				`CREATE INDEX idx_position_events_position ON position_events(position_id)`,
				`CREATE INDEX idx_position_events_time ON position_events(occurred_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add generation watermarks",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS watermarks (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
}

// Migrate brings the schema up to the latest version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
