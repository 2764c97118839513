package gradecheck

import (
	"context"
	"errors"
	"fmt"
	"gradewatch/lib/telemetry"
	"gradewatch/lib/transcript"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("gradewatch.services.gradecheck")
var meter = telemetry.Meter("gradewatch.services.gradecheck")
var checkCounter, _ = meter.Int64Counter("gradecheck.checks")
var newRecordCounter, _ = meter.Int64Counter("gradecheck.new_records")
var fetchFailureCounter, _ = meter.Int64Counter("gradecheck.fetch_failures")

type TranscriptSource interface {
	Fetch(ctx context.Context, window Window) (transcript.Snapshot, error)
}

type SnapshotStore interface {
	Load(ctx context.Context) (transcript.Snapshot, error)
	Save(ctx context.Context, snap transcript.Snapshot) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, text string) error
}

type Options struct {
	Source    TranscriptSource
	Store     SnapshotStore
	Formatter Formatter
	// nil disables notifications, the diff is still computed and saved
	Dispatcher  Dispatcher
	Window      Window
	ShowInTitle bool
}

type Service struct {
	opts Options
}

func NewService(opts Options) Service {
	if opts.Source == nil {
		panic("gradecheck: Options.Source must not be nil")
	}
	if opts.Store == nil {
		panic("gradecheck: Options.Store must not be nil")
	}
	return Service{opts: opts}
}

// Report describes what a single check found and did.
type Report struct {
	Diff    DiffResult
	Message Message
	// the fetch failed and the check ran against the empty snapshot
	Degraded   bool
	Dispatched bool
	// set when a notification was due but could not be delivered
	DispatchErr error
}

// Check fetches the transcript, compares it against the stored snapshot,
// stores the new one and pushes a notification when something changed.
//
// fetch and push failures are logged and degrade the run, only failing to
// read or write the snapshot file is returned as an error.
func (s Service) Check(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()
	checkCounter.Add(ctx, 1)

	var report Report

	current, err := s.opts.Source.Fetch(ctx, s.opts.Window)
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		fetchFailureCounter.Add(ctx, 1)
		slog.WarnContext(ctx, "could not fetch transcript, continuing with an empty snapshot", "err", err)
		current = transcript.Empty()
		report.Degraded = true
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch transcript")
		return report, err
	}

	previous, err := s.opts.Store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load previous snapshot")
		return report, fmt.Errorf("load previous snapshot: %w", err)
	}

	report.Diff = Diff(previous, current)
	span.SetAttributes(
		attribute.Int("delta", report.Diff.Delta),
		attribute.Int("added", len(report.Diff.Added)),
		attribute.Bool("mismatch", report.Diff.Mismatch),
	)
	newRecordCounter.Add(ctx, int64(len(report.Diff.Added)))
	if report.Diff.Mismatch {
		slog.WarnContext(
			ctx, "records total changed by a different amount than the records detected",
			"delta", report.Diff.Delta,
			"added", len(report.Diff.Added),
		)
	}

	var saveErr error
	if report.Degraded {
		// keep the last good snapshot so the next successful fetch is
		// compared against real data
		slog.InfoContext(ctx, "not overwriting previous snapshot after a failed fetch")
	} else {
		saveErr = s.opts.Store.Save(ctx, current)
		if saveErr != nil {
			span.RecordError(saveErr)
			span.SetStatus(codes.Error, "failed to save snapshot")
			slog.ErrorContext(ctx, "failed to save snapshot", "err", saveErr)
		}
	}

	report.Message = s.opts.Formatter.Format(report.Diff.Added, report.Diff.Mismatch, s.opts.ShowInTitle)
	if report.Message.Empty() {
		slog.InfoContext(ctx, "no new grades")
		return report, saveErr
	}
	slog.InfoContext(ctx, "new grades", "title", report.Message.Title, "records", len(report.Diff.Added))

	if s.opts.Dispatcher == nil {
		slog.WarnContext(ctx, "notifications are not configured, skipping push")
		return report, saveErr
	}

	err = s.opts.Dispatcher.Dispatch(ctx, report.Message.Text())
	if err != nil {
		report.DispatchErr = err
		slog.WarnContext(ctx, "failed to push notification", "err", err)
		return report, saveErr
	}
	report.Dispatched = true
	return report, saveErr
}
