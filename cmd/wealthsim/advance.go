package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakmont/wealthsim/internal/engine"
	"github.com/oakmont/wealthsim/internal/events"
	"github.com/oakmont/wealthsim/internal/service"
)

const advanceWatermark = "advance"

func advanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance the redemption process up to today",
		Long: `Catch the simulation up in near-real-time mode: pick up from the last
advance watermark (or a bounded lookback on first run) and evaluate every
open position for each day up to today, then move the watermark forward.

Designed to be run repeatedly, by hand or from the schedule command.`,
		RunE: runAdvance,
	}

	cmd.Flags().String("until", "", "Advance up to this date, YYYY-MM-DD (default: today)")

	return cmd
}

func runAdvance(cmd *cobra.Command, _ []string) error {
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

	until := time.Now().Truncate(24 * time.Hour)
	if v, _ := cmd.Flags().GetString("until"); v != "" {
		until, err = parseDate(v, "until")
		if err != nil {
			return err
		}
	}

	from, err := store.GetWatermark(ctx, advanceWatermark)
	if err != nil {
		return fmt.Errorf("failed to read watermark: %w", err)
	}
	if from.IsZero() {
		from = until.AddDate(0, 0, -cfg.System.RealtimeLookbackDays)
		slog.Info("No watermark found, using lookback window",
			"lookback_days", cfg.System.RealtimeLookbackDays)
	} else {
		from = from.AddDate(0, 0, 1)
	}
	if from.After(until) {
		slog.Info("Already up to date", "watermark", from.Format(dateLayout))
		return nil
	}

	coordinator := engine.NewLifecycleCoordinator(cfg, store,
		events.NewRecorder(store, slog.Default()), slog.Default())

	var total service.BatchStats
	for day := from; !day.After(until); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, err := coordinator.AdvanceDay(ctx, day)
		if err != nil {
			return fmt.Errorf("advance failed on %s: %w", day.Format(dateLayout), err)
		}
		total.Add(stats)
		if err := store.SetWatermark(ctx, advanceWatermark, day); err != nil {
			return fmt.Errorf("failed to update watermark: %w", err)
		}
	}

	slog.Info("✅ Advanced simulation",
		"from", from.Format(dateLayout),
		"until", until.Format(dateLayout),
		"evaluations", total.Processed,
		"partial_redemptions", total.Partial,
		"full_redemptions", total.Full,
		"matured", total.Matured)
	return nil
}
