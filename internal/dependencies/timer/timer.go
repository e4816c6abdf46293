package timer

import "time"

// CancelFunc stops a scheduled callback. It reports whether the callback was
// prevented from running.
type CancelFunc func() bool

// Scheduler schedules one-shot callbacks, mockable for testing
type Scheduler interface {
	// AfterFunc runs fn in its own goroutine after d elapses
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

// RealScheduler implements Scheduler using the runtime timer
type RealScheduler struct{}

// New creates a new RealScheduler
func New() *RealScheduler {
	return &RealScheduler{}
}

// AfterFunc schedules fn after d
func (s *RealScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}
