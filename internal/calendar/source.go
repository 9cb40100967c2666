package calendar

import (
	"sync"
	"time"
)

// TimeSource supplies wall-clock time to a Clock.
type TimeSource interface {
	Now() time.Time
}

// RealTime reads the system clock.
type RealTime struct{}

func (RealTime) Now() time.Time { return time.Now() }

// FakeTime is deterministic and test-friendly.
type FakeTime struct {
	mu sync.Mutex
	t  time.Time
}

// NewFakeTime returns a FakeTime frozen at start.
func NewFakeTime(start time.Time) *FakeTime {
	return &FakeTime{t: start}
}

func (f *FakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the fake clock to t, forwards or backwards.
func (f *FakeTime) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the fake clock forward by d.
func (f *FakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}
