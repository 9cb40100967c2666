// Package calendar maps elapsed wall-clock time onto the accelerated game
// calendar: 30-day months, 12-month years, no leap years.
package calendar

import (
	"math"
	"sync"
	"time"
)

// Calendar shape.
const (
	DaysPerMonth  = 30
	MonthsPerYear = 12
	DaysPerYear   = DaysPerMonth * MonthsPerYear // 360

	DaysPerSecond = 2.0 // 1 real second = 2 sim-days
)

// GameTime is a projection of the clock at one instant.
// TotalDays is the source of truth; CurrentDate is derived from it.
type GameTime struct {
	StartEpoch  time.Time `json:"start_epoch"`
	CurrentDate GameDate  `json:"current_date"`
	TotalDays   int       `json:"total_days"`
}

// Clock converts elapsed real time since a start epoch into game days.
// Reads never mutate state: every query recomputes from the epoch.
type Clock struct {
	source        TimeSource
	daysPerSecond float64

	mu         sync.RWMutex
	startEpoch time.Time
}

// Option configures a Clock.
type Option func(*Clock)

// WithTimeSource overrides the wall clock (tests use FakeTime).
func WithTimeSource(src TimeSource) Option {
	return func(c *Clock) { c.source = src }
}

// WithDaysPerSecond overrides the simulation rate. Non-positive values are ignored.
func WithDaysPerSecond(rate float64) Option {
	return func(c *Clock) {
		if rate > 0 && !math.IsInf(rate, 0) {
			c.daysPerSecond = rate
		}
	}
}

// New creates a clock whose epoch is the current time of its source.
func New(opts ...Option) *Clock {
	c := &Clock{
		source:        RealTime{},
		daysPerSecond: DaysPerSecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startEpoch = c.source.Now()
	return c
}

// CurrentTime returns the game time for the source's current instant.
func (c *Clock) CurrentTime() GameTime {
	c.mu.RLock()
	start := c.startEpoch
	c.mu.RUnlock()

	days := c.elapsedDays(start, c.source.Now())
	return GameTime{
		StartEpoch:  start,
		CurrentDate: DaysToDate(days),
		TotalDays:   days,
	}
}

func (c *Clock) elapsedDays(start, now time.Time) int {
	elapsed := now.Sub(start).Seconds()
	if elapsed <= 0 {
		return 0 // clock skew or epoch in the future
	}
	days := math.Floor(elapsed * c.daysPerSecond)
	if days > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(days)
}

// Reset restarts the calendar at day zero.
func (c *Clock) Reset() {
	now := c.source.Now()
	c.mu.Lock()
	c.startEpoch = now
	c.mu.Unlock()
}

// SetStartTime restores a persisted epoch so a resumed game does not jump
// back to day zero.
func (c *Clock) SetStartTime(epoch time.Time) {
	c.mu.Lock()
	c.startEpoch = epoch
	c.mu.Unlock()
}

// ResumeAt back-dates the epoch so the clock currently reads totalDays.
// Used when state arrives without its epoch, as with an imported snapshot.
func (c *Clock) ResumeAt(totalDays int) {
	if totalDays < 0 {
		totalDays = 0
	}
	// Half a day of slack keeps floor() from landing one day short.
	elapsed := (float64(totalDays) + 0.5) / c.daysPerSecond
	epoch := c.source.Now().Add(-time.Duration(elapsed * float64(time.Second)))
	c.SetStartTime(epoch)
}

// StartTime returns the current epoch.
func (c *Clock) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startEpoch
}

// DaysPerSecond returns the configured simulation rate.
func (c *Clock) DaysPerSecond() float64 {
	return c.daysPerSecond
}
