package commands

import (
	"context"
	"fmt"
	"gradewatch/lib/notify"
	"gradewatch/lib/restyutil"
	"gradewatch/lib/runlock"
	"gradewatch/lib/scrapers/uis"
	"gradewatch/lib/serviceutil"
	"gradewatch/lib/snapshotstore"
	"gradewatch/lib/telemetry"
	"gradewatch/services/gradecheck"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("gradewatch.cmd.gradewatch")

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Runs a single check and pushes a notification if there are new grades.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := LoadConfig(configPath, dotenvPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		_, err = runCheck(cmd.Context(), cfg, instrumentOutput())
		if err != nil {
			serviceutil.Fatal("check failed", err)
		}
	},
}

// newDispatcher returns nil when the push settings are incomplete, the check
// still runs and saves the snapshot in that case.
func newDispatcher(cfg Config, client *resty.Client) gradecheck.Dispatcher {
	if cfg.PushChannel == nil {
		slog.Warn("PUSH_CHANNEL is not set, notifications are disabled")
		return nil
	}
	selected := *cfg.PushChannel

	channels := notify.DefaultChannels(cfg.Token, client, cfg.Email)
	switch selected {
	case notify.ChannelPushdeer, notify.ChannelPushplus:
		if cfg.Token == "" {
			slog.Warn("TOKEN is not set, notifications are disabled", "channel", selected)
			return nil
		}
		if cfg.PushTemplate != "" {
			channels[selected] = notify.NewTemplateChannel(
				channels[selected].Name(), cfg.PushTemplate, cfg.Token, client,
			)
		}
	}
	return notify.NewDispatcher(selected, channels...)
}

func logout(ctx context.Context, client *uis.Client) {
	err := client.Logout(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to logout", "err", err)
	}
}

// runCheck performs one login, fetch, diff, save, push cycle. errors returned
// here are the ones that should end the process.
func runCheck(ctx context.Context, cfg Config, output restyutil.InstrumentOutput) (gradecheck.Report, error) {
	if err := cfg.Validate(); err != nil {
		return gradecheck.Report{}, err
	}
	formatter, err := gradecheck.NewFormatter(cfg.TitleFields)
	if err != nil {
		return gradecheck.Report{}, fmt.Errorf("title_fields: %w", err)
	}

	runId, err := random.String(8)
	if err != nil {
		return gradecheck.Report{}, err
	}
	ctx, span := tracer.Start(ctx, "runCheck")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runId))
	logger := slog.Default().With("run", runId)

	err = os.MkdirAll(filepath.Dir(cfg.SnapshotPath), 0700)
	if err != nil {
		return gradecheck.Report{}, err
	}
	lock, err := runlock.Acquire(cfg.SnapshotPath + ".lock")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return gradecheck.Report{}, fmt.Errorf("lock %s: %w", cfg.SnapshotPath, err)
	}
	defer lock.Release()

	client, err := uis.NewClient(uis.ClientOptions{
		LoginUrl:         cfg.Portal.LoginUrl,
		LogoutUrl:        cfg.Portal.LogoutUrl,
		ServiceUrl:       cfg.Portal.ServiceUrl,
		UserAgent:        cfg.Portal.UserAgent,
		Timeout:          cfg.Portal.Timeout(),
		CloudflareBypass: cfg.Portal.CloudflareBypass,
		InstrumentOutput: output,
	})
	if err != nil {
		return gradecheck.Report{}, err
	}

	logger.InfoContext(ctx, "logging in", "student_id", cfg.StudentId)
	err = client.Login(ctx, cfg.StudentId, cfg.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		logout(ctx, client)
		return gradecheck.Report{}, err
	}
	defer logout(ctx, client)

	pushClient := resty.New().SetTimeout(cfg.Portal.Timeout())
	restyutil.InstrumentClient(pushClient, tracer, output)

	service := gradecheck.NewService(gradecheck.Options{
		Source: gradecheck.NewFetcher(client, gradecheck.FetcherOptions{
			ServiceUrl: cfg.Portal.ServiceUrl,
			DataUrl:    cfg.Portal.DataUrl,
		}),
		Store:      snapshotstore.New(cfg.SnapshotPath),
		Formatter:  formatter,
		Dispatcher: newDispatcher(cfg, pushClient),
		Window: gradecheck.Window{
			Start:  cfg.Page.Start,
			Length: cfg.Page.Length,
		},
		ShowInTitle: cfg.ShowDataInTitle,
	})

	report, err := service.Check(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check failed")
		return report, err
	}
	logger.InfoContext(
		ctx, "check finished",
		"added", len(report.Diff.Added),
		"mismatch", report.Diff.Mismatch,
		"dispatched", report.Dispatched,
	)
	return report, nil
}
