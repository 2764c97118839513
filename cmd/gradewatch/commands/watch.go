package commands

import (
	"context"
	"errors"
	"gradewatch/lib/chrono"
	"gradewatch/lib/runlock"
	"gradewatch/lib/serviceutil"
	"gradewatch/lib/telemetry"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	watchSchedule string
	watchNow      bool
)

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "A cron spec or descriptor like \"@every 1h\", overrides watch.schedule.")
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "Runs a check immediately instead of waiting for the first tick.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--schedule <spec>] [--now]",
	Short: "Runs checks on a schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(configPath, dotenvPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		if watchSchedule != "" {
			cfg.Watch.Schedule = watchSchedule
		}
		err = watch(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to start watching", err)
		}
	},
}

// tick runs one scheduled check, failures are logged and the schedule keeps
// going.
func tick(ctx context.Context, cfg Config) {
	_, err := runCheck(ctx, cfg, instrumentOutput())
	if errors.Is(err, runlock.ErrLocked) {
		slog.WarnContext(ctx, "another check is still running, skipping this one")
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "scheduled check failed", "err", err)
	}
}

func watch(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	location, err := chrono.LoadLocation(cfg.Watch.Timezone)
	if err != nil {
		return err
	}

	scheduler := chrono.NewCron(location)
	err = scheduler.Schedule(cfg.Watch.Schedule, func() {
		tick(ctx, cfg)
	})
	if err != nil {
		return err
	}

	if tel.Enabled() {
		registration, err := telemetry.InstrumentProcessStats()
		if err != nil {
			slog.Warn("failed to report process stats", "err", err)
		} else {
			defer registration.Unregister()
		}
	}
	if watchNow {
		tick(ctx, cfg)
	}

	slog.Info("watching for new grades", "schedule", cfg.Watch.Schedule, "timezone", location.String())
	scheduler.Run(ctx)
	slog.Info("stopped watching")
	return nil
}
