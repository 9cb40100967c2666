// Package engine drives the simulation from the calendar clock.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/idle-realm/internal/calendar"
)

// DefaultMaxCatchUp bounds how many game days a single Step replays after a
// long absence. Roughly one in-game decade.
const DefaultMaxCatchUp = 3600

// Engine polls the clock and turns elapsed game time into day and season
// callbacks. It holds no game state of its own beyond the last day processed.
type Engine struct {
	Clock      *calendar.Clock
	Interval   time.Duration // How often Run polls the clock
	MaxCatchUp int

	// Callbacks, populated during setup.
	OnDay    func(totalDays int, date calendar.GameDate)
	OnSeason func(from, to calendar.Season, date calendar.GameDate)

	lastDay int
	season  calendar.Season
	epoch   time.Time // Clock epoch lastDay is counted from
}

// NewEngine creates an engine that starts at day 0.
func NewEngine(clock *calendar.Clock) *Engine {
	return &Engine{
		Clock:      clock,
		Interval:   250 * time.Millisecond,
		MaxCatchUp: DefaultMaxCatchUp,
		season:     calendar.SeasonOf(calendar.DaysToDate(0)),
		epoch:      clock.StartTime(),
	}
}

// Resume marks lastDay as already processed, so the next Step starts after it.
func (e *Engine) Resume(lastDay int) {
	if lastDay < 0 {
		lastDay = 0
	}
	e.lastDay = lastDay
	e.season = calendar.SeasonOf(calendar.DaysToDate(lastDay))
	e.epoch = e.Clock.StartTime()
}

// LastDay returns the most recently processed total day count.
func (e *Engine) LastDay() int {
	return e.lastDay
}

// Step processes every game day that elapsed since the last call and returns
// how many were processed.
func (e *Engine) Step() int {
	gt := e.Clock.CurrentTime()
	now := gt.TotalDays

	// A new epoch starts a new count: replay it from day zero.
	if !gt.StartEpoch.Equal(e.epoch) {
		slog.Info("clock epoch changed, restarting day count", "from_day", e.lastDay, "to_day", now)
		e.lastDay = 0
		e.season = calendar.SeasonOf(calendar.DaysToDate(0))
		e.epoch = gt.StartEpoch
	}

	// Same epoch but fewer days: the clock source stepped backwards.
	if now < e.lastDay {
		slog.Warn("clock went backwards, resyncing", "from_day", e.lastDay, "to_day", now)
		e.Resume(now)
		return 0
	}

	from := e.lastDay + 1
	if behind := now - e.lastDay; e.MaxCatchUp > 0 && behind > e.MaxCatchUp {
		slog.Warn("catch-up capped",
			"days_behind", behind,
			"replayed", e.MaxCatchUp,
		)
		from = now - e.MaxCatchUp + 1
		e.season = calendar.SeasonOf(calendar.DaysToDate(from - 1))
	}

	processed := 0
	for day := from; day <= now; day++ {
		date := calendar.DaysToDate(day)
		if s := calendar.SeasonOf(date); s != e.season {
			prev := e.season
			e.season = s
			if e.OnSeason != nil {
				e.OnSeason(prev, s, date)
			}
		}
		if e.OnDay != nil {
			e.OnDay(day, date)
		}
		e.lastDay = day
		processed++
	}
	return processed
}

// Run steps the engine every Interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started",
		"day", e.lastDay,
		"date", calendar.FormatDate(calendar.DaysToDate(e.lastDay)),
		"days_per_second", e.Clock.DaysPerSecond(),
	)

	interval := e.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.Step()
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "day", e.lastDay)
			return
		case <-ticker.C:
			e.Step()
		}
	}
}
