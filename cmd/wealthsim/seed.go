package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakmont/wealthsim/internal/common"
	"github.com/oakmont/wealthsim/internal/engine"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo customer population and product catalog",
		Long: `Generate synthetic customers and products and store them, so the
simulator has a population to work against. Products follow the configured
risk, term and yield distributions; customers get a retail-heavy mix of
types, risk levels and wealth phases.

Safe to re-run: with the same seed it reproduces the same rows.`,
		RunE: runSeed,
	}

	cmd.Flags().Int("customers", 500, "Number of customers to generate")
	cmd.Flags().Int("products", 50, "Number of products to generate")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	customerCount, _ := cmd.Flags().GetInt("customers")
	productCount, _ := cmd.Flags().GetInt("products")
	if customerCount <= 0 || productCount <= 0 {
		return fmt.Errorf("--customers and --products must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openMigratedStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builder := engine.NewCatalogBuilder(cfg, common.NewRand(cfg.System.RandomSeed), slog.Default())
	now := time.Now()

	products := builder.BuildProducts(productCount, now)
	if err := store.SaveProducts(ctx, products); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}

	customers := builder.BuildCustomers(customerCount, now)
	if err := store.SaveCustomers(ctx, customers); err != nil {
		return fmt.Errorf("failed to save customers: %w", err)
	}

	slog.Info("✅ Seeded demo population",
		"customers", len(customers),
		"products", len(products),
		"seed", cfg.System.RandomSeed)
	return nil
}
