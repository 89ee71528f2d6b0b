package analysis

import (
	"testing"
	"time"
)

func TestRunLocksRejectWhileInFlight(t *testing.T) {
	locks := newRunLocks(30 * time.Second)

	ok, _ := locks.Acquire("user-1")
	if !ok {
		t.Fatal("first acquire failed")
	}
	if ok, _ := locks.Acquire("user-1"); ok {
		t.Fatal("second acquire succeeded while in flight")
	}
}

func TestRunLocksWindowAfterRelease(t *testing.T) {
	locks := newRunLocks(30 * time.Second)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	locks.now = func() time.Time { return current }

	if ok, _ := locks.Acquire("user-1"); !ok {
		t.Fatal("first acquire failed")
	}
	locks.Release("user-1")

	current = current.Add(10 * time.Second)
	ok, retryAfter := locks.Acquire("user-1")
	if ok {
		t.Fatal("acquire succeeded inside the window")
	}
	if retryAfter != 20*time.Second {
		t.Fatalf("retryAfter = %s, want 20s", retryAfter)
	}

	current = current.Add(21 * time.Second)
	if ok, _ := locks.Acquire("user-1"); !ok {
		t.Fatal("acquire failed after the window elapsed")
	}
}

func TestRunLocksAbandonLeavesNoWindow(t *testing.T) {
	locks := newRunLocks(30 * time.Second)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	locks.now = func() time.Time { return current }

	if ok, _ := locks.Acquire("user-1"); !ok {
		t.Fatal("first acquire failed")
	}
	locks.Abandon("user-1")

	// No time passes; the slot is free again immediately.
	if ok, _ := locks.Acquire("user-1"); !ok {
		t.Fatal("acquire failed after abandon")
	}
}

func TestRunLocksIndependentUsers(t *testing.T) {
	locks := newRunLocks(30 * time.Second)

	if ok, _ := locks.Acquire("user-1"); !ok {
		t.Fatal("acquire user-1 failed")
	}
	if ok, _ := locks.Acquire("user-2"); !ok {
		t.Fatal("acquire user-2 failed while user-1 holds its own lock")
	}
}
