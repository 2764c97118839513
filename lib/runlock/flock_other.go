//go:build !unix

package runlock

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// without flock the lock file holds the pid of the run that owns it, a pid
// that is no longer running means a crashed run and the lock is taken over.
func tryLock(f *os.File) error {
	contents, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if len(contents) > 0 {
		if !markerIsStale(contents) {
			return fmt.Errorf("%w: %s", ErrLocked, f.Name())
		}
		slog.Warn("taking over the lock of a run that is no longer running", "path", f.Name())
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err = f.WriteAt(marker(os.Getpid()), 0)
	return err
}

func unlock(f *os.File) error {
	return f.Truncate(0)
}
