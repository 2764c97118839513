// Package runlock keeps two checks from reading and overwriting the same
// snapshot file at the same time.
package runlock

import (
	"bytes"
	"errors"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v4/process"
)

var ErrLocked = errors.New("another run holds the lock")

type Lock struct {
	file *os.File
	path string
}

func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock, the lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(err, closeErr)
}

// Acquire takes an exclusive lock on `path` without blocking, it fails with
// ErrLocked if another process (or another Lock in this one) holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	err = tryLock(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Lock{file: f, path: path}, nil
}

func marker(pid int) []byte {
	return []byte(strconv.Itoa(pid) + "\n")
}

// markerIsStale reports whether a lock marker names a process that is not
// running anymore. unreadable markers are stale.
func markerIsStale(contents []byte) bool {
	pid, err := strconv.ParseInt(string(bytes.TrimSpace(contents)), 10, 32)
	if err != nil || pid <= 0 {
		return true
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return false
	}
	return !exists
}
