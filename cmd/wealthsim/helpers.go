package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/oakmont/wealthsim/internal/config"
	"github.com/oakmont/wealthsim/internal/storage"
)

const dateLayout = "2006-01-02"

// loadConfig resolves the full configuration from defaults, the config file
// and environment overrides.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore opens the SQLite store at the configured path, defaulting to the
// standard local data directory.
func openStore(cfg config.Config) (*storage.SQLiteStorage, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "wealthsim", "wealthsim.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// openMigratedStore opens the store and brings the schema up to date.
func openMigratedStore(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// parseDate parses a YYYY-MM-DD flag value.
func parseDate(value, flag string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (want YYYY-MM-DD): %w", flag, value, err)
	}
	return t, nil
}
