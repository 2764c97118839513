package snapshotstore

import (
	"context"
	"gradewatch/lib/transcript"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "record.json"))

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 0, snap.RecordsTotal)
	require.Empty(t, snap.Records)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	err := os.WriteFile(path, []byte(`{"recordsTotal": 3, "data": [`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	snap, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 0, snap.RecordsTotal)
	require.Empty(t, snap.Records)
}

func TestRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "state", "record.json")
	store := New(path)

	body := []byte(`{"draw": 1, "recordsTotal": 1, "data": [["A", "2023", "1", "Algebra", 4, "A"]]}`)
	snap, err := transcript.Parse(body)
	if err != nil {
		t.Fatal(err)
	}
	err = store.Save(ctx, snap)
	if err != nil {
		t.Fatal(err)
	}

	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, body, persisted)

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 1, loaded.RecordsTotal)
	require.True(t, loaded.Records[0].Equal(snap.Records[0]))

	// saving what was loaded reproduces the same bytes
	err = store.Save(ctx, loaded)
	if err != nil {
		t.Fatal(err)
	}
	again, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, persisted, again)

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestSaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	err := New(path).Save(context.Background(), transcript.Empty())
	if err != nil {
		t.Fatal(err)
	}

	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	require.JSONEq(t, `{"recordsTotal":0,"data":[]}`, string(persisted))
}
