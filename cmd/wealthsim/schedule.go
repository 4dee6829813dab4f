package main

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the advance step on a cron schedule",
		Long: `Keep the simulation continuously up to date: run the same catch-up step
as 'advance' on a cron schedule until interrupted.

The default schedule runs once a day shortly after midnight.`,
		RunE: runSchedule,
	}

	cmd.Flags().String("cron", "15 0 * * *", "Cron expression for the advance step")

	return cmd
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	spec, _ := cmd.Flags().GetString("cron")
	ctx := cmd.Context()

	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		if err := runAdvance(cmd, nil); err != nil {
			slog.Error("scheduled advance failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	slog.Info("⏰ Scheduler started", "cron", spec)
	scheduler.Start()

	<-ctx.Done()
	slog.Info("Scheduler stopping...")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	return nil
}
