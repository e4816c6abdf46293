package mocks

import (
	"sync"
	"time"

	"github.com/mkarppi/sketchparty/internal/dependencies/timer"
)

// MockScheduler is a mock implementation of Scheduler for testing. Scheduled
// callbacks never fire on their own; tests fire them explicitly.
type MockScheduler struct {
	mu      sync.Mutex
	entries []*mockEntry
}

type mockEntry struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

// Ensure MockScheduler implements Scheduler
var _ timer.Scheduler = (*MockScheduler)(nil)

// NewMockScheduler creates a new MockScheduler
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

// AfterFunc records the callback without scheduling anything
func (s *MockScheduler) AfterFunc(d time.Duration, fn func()) timer.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &mockEntry{delay: d, fn: fn}
	s.entries = append(s.entries, e)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e.fired || e.cancelled {
			return false
		}
		e.cancelled = true
		return true
	}
}

// FireNext runs the oldest pending callback synchronously. Returns false if
// nothing is pending.
func (s *MockScheduler) FireNext() bool {
	s.mu.Lock()
	var next *mockEntry
	for _, e := range s.entries {
		if !e.fired && !e.cancelled {
			next = e
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.fn()
	return true
}

// FireAll runs every pending callback in scheduling order
func (s *MockScheduler) FireAll() int {
	n := 0
	for s.FireNext() {
		n++
	}
	return n
}

// Pending returns the number of callbacks not yet fired or cancelled
func (s *MockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.fired && !e.cancelled {
			n++
		}
	}
	return n
}

// LastDelay returns the delay of the most recently scheduled callback
func (s *MockScheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[len(s.entries)-1].delay
}
