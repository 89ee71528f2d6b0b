package analysis

import (
	"sync"
	"time"
)

// runLocks enforces the per-user run window: at most one run in flight, and
// no new run within the window after the previous one started. Callers that
// fail to acquire are rejected immediately, never queued.
type runLocks struct {
	mu        sync.Mutex
	window    time.Duration
	now       func() time.Time
	inFlight  map[string]bool
	lastStart map[string]time.Time
}

func newRunLocks(window time.Duration) *runLocks {
	return &runLocks{
		window:    window,
		now:       time.Now,
		inFlight:  make(map[string]bool),
		lastStart: make(map[string]time.Time),
	}
}

// Acquire reserves the user's run slot. On failure the returned duration is
// how long the caller should wait before retrying.
func (l *runLocks) Acquire(userID string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.inFlight[userID] {
		return false, l.window
	}
	if started, ok := l.lastStart[userID]; ok {
		if elapsed := now.Sub(started); elapsed < l.window {
			return false, l.window - elapsed
		}
	}
	l.inFlight[userID] = true
	l.lastStart[userID] = now
	return true, 0
}

// Release frees the in-flight slot. The start time is kept so the window
// still applies after a fast run.
func (l *runLocks) Release(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, userID)
}

// Abandon frees the slot and forgets the start time, as if the run never
// happened. Used when a run ends before touching any photos, so the user is
// not locked out of retrying after an empty result.
func (l *runLocks) Abandon(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, userID)
	delete(l.lastStart, userID)
}
