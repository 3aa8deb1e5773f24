package usecase

import (
	"sync"
)

// attemptTracker holds per-principal failed-attempt counters. Counters are
// transient: they reset on success and are lost on restart.
//
// Updates are atomic with respect to concurrent attempts against the same
// principal, so parallel failed logins each observe and apply the delay
// instead of sharing a stale read.
type attemptTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

func newAttemptTracker() *attemptTracker {
	return &attemptTracker{counts: make(map[string]int)}
}

// fail increments the principal's counter and returns the new value.
func (t *attemptTracker) fail(principal string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[principal]++
	return t.counts[principal]
}

// reset clears the principal's counter after a successful authentication.
func (t *attemptTracker) reset(principal string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.counts, principal)
}

// count returns the principal's current counter.
func (t *attemptTracker) count(principal string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.counts[principal]
}
