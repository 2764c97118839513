package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"gradewatch/lib/telemetry"
	"gradewatch/lib/transcript"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("gradewatch.lib.snapshotstore")

// Store keeps the most recent transcript snapshot in a single JSON file.
type Store struct {
	path string
}

func New(path string) Store {
	return Store{path: path}
}

func (s Store) Path() string {
	return s.path
}

// Load returns the persisted snapshot. a missing file is a first run and a
// corrupt file is treated the same way, both yield the empty snapshot.
func (s Store) Load(ctx context.Context) (transcript.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("path", s.path))

	contents, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.InfoContext(ctx, "no previous snapshot, starting from empty", "path", s.path)
		return transcript.Empty(), nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read snapshot")
		return transcript.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	snap, err := transcript.Parse(contents)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "previous snapshot is corrupt, starting from empty", "path", s.path, "err", err)
		return transcript.Empty(), nil
	}

	span.SetAttributes(
		attribute.Int("records_total", snap.RecordsTotal),
		attribute.Int("records", len(snap.Records)),
	)
	return snap, nil
}

// Save replaces the persisted snapshot. the new contents are written to a
// temporary file in the same directory and renamed over the old one.
func (s Store) Save(ctx context.Context, snap transcript.Snapshot) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(attribute.String("path", s.path))

	contents, err := snap.Encode()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode snapshot")
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = writeFileAtomic(s.path, contents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write snapshot")
		return fmt.Errorf("write snapshot: %w", err)
	}

	slog.DebugContext(ctx, "saved snapshot", "path", s.path, "records_total", snap.RecordsTotal)
	return nil
}

func writeFileAtomic(path string, contents []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
