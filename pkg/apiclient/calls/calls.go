// Package calls records the HTTP round trips made by an API client.
package calls

import (
	"sync"
	"time"
)

// DefaultHistory is how many recent calls a Tracker keeps when History is
// zero.
const DefaultHistory = 256

// Call describes one round trip. StatusCode is zero when no response was
// received.
type Call struct {
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	Failed     bool
}

// Tracker accumulates calls across requests. Only the most recent History
// calls are kept; Count, CountPath and TotalDuration cover every call since
// the last Reset. It is safe for concurrent use.
type Tracker struct {
	// History caps the retained calls (default DefaultHistory). Set it
	// before the first Add.
	History int

	mu      sync.Mutex
	entries []Call
	count   int
	total   time.Duration
	perPath map[string]int
}

// Add records a call, dropping the oldest retained one when full.
func (t *Tracker) Add(c Call) {
	t.mu.Lock()
	defer t.mu.Unlock()

	limit := t.History
	if limit <= 0 {
		limit = DefaultHistory
	}

	if len(t.entries) >= limit {
		n := copy(t.entries, t.entries[len(t.entries)-limit+1:])
		t.entries = t.entries[:n]
	}
	t.entries = append(t.entries, c)

	if t.perPath == nil {
		t.perPath = make(map[string]int)
	}
	t.count++
	t.total += c.Duration
	t.perPath[c.Path]++
}

// Last returns the most recent call.
// The bool is false when the tracker has no entries.
func (t *Tracker) Last() (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == 0 {
		return Call{}, false
	}

	return t.entries[len(t.entries)-1], true
}

// All returns a copy of the retained calls, oldest first.
func (t *Tracker) All() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	cp := make([]Call, len(t.entries))
	copy(cp, t.entries)

	return cp
}

// Count returns the number of calls recorded.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// CountPath returns the number of calls made to path.
func (t *Tracker) CountPath(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.perPath[path]
}

// TotalDuration returns the time spent across all calls.
func (t *Tracker) TotalDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Reset clears the history and the totals.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = nil
	t.count = 0
	t.total = 0
	t.perPath = nil
}
