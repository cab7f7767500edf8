package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	h, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Lock file not readable: %v", err)
	}
	if len(data) == 0 {
		t.Error("Expected pid written to lock file")
	}

	if err := h.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected lock file removed after release")
	}
}

func TestSecondAcquireFailsFast(t *testing.T) {
	// flock locks are per open file description, so a second descriptor in
	// the same process is enough to exercise the contention path.
	path := filepath.Join(t.TempDir(), "run.lock")

	h1, err := Acquire(path)
	if err != nil {
		t.Fatalf("First Acquire() failed: %v", err)
	}
	defer h1.Release()

	h2, err := Acquire(path)
	if !errors.Is(err, ErrHeld) {
		if h2 != nil {
			h2.Release()
		}
		t.Fatalf("Expected ErrHeld from second Acquire(), got %v", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	h1, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}
	h1.Release()

	h2, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire() after release failed: %v", err)
	}
	h2.Release()
}

func TestReleaseNilHandle(t *testing.T) {
	var h *Handle
	if err := h.Release(); err != nil {
		t.Errorf("Release() on nil handle returned %v", err)
	}
}
