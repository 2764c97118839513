package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lmittmann/tint"
)

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// SetupLogging sends the default slog logger to t.Log at debug level for the
// duration of the test.
func SetupLogging(t testing.TB) {
	previous := slog.Default()
	slog.SetDefault(slog.New(tint.NewHandler(testWriter{t: t}, &tint.Options{
		Level:   slog.LevelDebug,
		NoColor: true,
	})))
	t.Cleanup(func() {
		slog.SetDefault(previous)
	})
}

// WriteFile writes `contents` to `path`, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

// ClearEnv unsets `keys` for the duration of the test.
func ClearEnv(t testing.TB, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
