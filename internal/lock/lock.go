// Package lock provides the single-instance guard for a sync run.
// It uses flock(2), so the lock dies with the process and a second
// scheduled invocation fails fast instead of queueing behind the first.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"
)

// ErrHeld is returned when another process already holds the lock.
var ErrHeld = errors.New("lock already held by another instance")

// Handle is an acquired run lock. Release it on every exit path.
type Handle struct {
	path string
	file *os.File
}

// Acquire takes an exclusive, non-blocking lock on path. It returns
// ErrHeld immediately if another live process holds it.
func Acquire(path string) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// Record the holder's pid for operators inspecting a stale-looking lock.
	f.Truncate(0)
	f.WriteString(strconv.Itoa(os.Getpid()))

	return &Handle{path: path, file: f}, nil
}

// Release unlocks and removes the lock file. Safe to call once only.
func (h *Handle) Release() error {
	if h == nil || h.file == nil {
		return nil
	}
	syscall.Flock(int(h.file.Fd()), syscall.LOCK_UN)
	err := h.file.Close()
	os.Remove(h.path)
	h.file = nil
	return err
}
