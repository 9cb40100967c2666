// Simulation owns the realm draft and wires the effect pipeline, the bus and
// the weather into the engine's day and season callbacks.
package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/calendar"
	"github.com/talgya/idle-realm/internal/effects"
	"github.com/talgya/idle-realm/internal/state"
	"github.com/talgya/idle-realm/internal/weather"
)

// Open fields the simulation keeps in the save blob.
const (
	fieldLastProcessedDay = "lastProcessedDay"
	fieldPlaythroughID    = "playthroughId"
)

// Simulation holds the draft and serialises every access to it.
//
// Bus handlers run while the simulation lock is held. They may emit further
// events but must not call Simulation methods.
type Simulation struct {
	mu    sync.Mutex
	state *state.State

	Bus     *bus.Bus
	Effects *effects.Pipeline
	Clock   *calendar.Clock
	Weather *weather.Generator

	weatherTable map[weather.Kind][]effects.Effect
	dailyYield   map[string]float64
	seasonYield  map[calendar.Season]float64

	Events      []Event // Recent events, trimmed to maxEvents
	day         int     // Day currently being processed
	lastWeather weather.Kind
}

// Event is a notable occurrence kept in the recent-event log.
type Event struct {
	Day         int    `json:"day"`
	Description string `json:"description"`
	Category    string `json:"category"` // "weather", "season", "achievement", "save", etc.
}

const maxEvents = 1000

// Options carries the collaborators and tuning of a Simulation. Nil fields
// get defaults, except Weather, which disables forecasts when nil.
type Options struct {
	Bus          *bus.Bus
	Effects      *effects.Pipeline
	Weather      *weather.Generator
	WeatherTable map[weather.Kind][]effects.Effect
	DailyYield   map[string]float64
	SeasonYield  map[calendar.Season]float64
}

// NewSimulation creates a simulation over st, which it takes ownership of.
func NewSimulation(st *state.State, clock *calendar.Clock, opts Options) *Simulation {
	if st == nil {
		st = state.New()
	}
	if clock == nil {
		clock = calendar.New()
	}
	if opts.Bus == nil {
		opts.Bus = bus.New()
	}
	if opts.Effects == nil {
		opts.Effects = effects.Default()
	}

	s := &Simulation{
		state:        st,
		Bus:          opts.Bus,
		Effects:      opts.Effects,
		Clock:        clock,
		Weather:      opts.Weather,
		weatherTable: opts.WeatherTable,
		dailyYield:   opts.DailyYield,
		seasonYield:  opts.SeasonYield,
	}
	s.day = s.lastProcessedDay()
	if s.playthroughID() == "" {
		s.state.SetField(fieldPlaythroughID, uuid.NewString())
	}

	s.observe()
	s.trackAchievements()
	return s
}

// Apply runs effects against the draft.
func (s *Simulation) Apply(effs ...effects.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(effs)
}

func (s *Simulation) apply(effs []effects.Effect) error {
	ctx := &effects.Context{
		Mutate: func(fn func(*state.State)) { fn(s.state) },
		Emit:   s.Bus.Emit,
	}
	return s.Effects.Run(ctx, effs)
}

// Publish emits e on the bus with the simulation lock held, so handlers see
// the same ownership as during a tick.
func (s *Simulation) Publish(e bus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Bus.Emit(e)
}

// TickDay runs once per elapsed game day: seasonal income, then the day's
// weather.
func (s *Simulation) TickDay(totalDays int, date calendar.GameDate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.day = totalDays

	season := calendar.SeasonOf(date)
	effs := s.dailyEffects(season)

	if s.Weather != nil {
		f := s.Weather.ForDay(totalDays)
		if f.Kind != s.lastWeather {
			s.lastWeather = f.Kind
			s.emit(bus.WeatherChanged{
				Kind:        string(f.Kind),
				Description: f.Description,
				Intensity:   f.Intensity,
				TotalDays:   totalDays,
			})
		}
		effs = append(effs, weather.Effects(f, s.weatherTable)...)
	}

	if err := s.apply(effs); err != nil {
		slog.Error("daily effects failed", "day", totalDays, "error", err)
	}
	s.state.SetField(fieldLastProcessedDay, totalDays)
	s.emit(bus.DayAdvanced{TotalDays: totalDays, Date: date})

	if date.Day == 1 {
		s.monthlyReport(date)
	}
}

// TickSeason runs on each season boundary.
func (s *Simulation) TickSeason(from, to calendar.Season, date calendar.GameDate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Info("season change",
		"day", date.TotalDays(),
		"time", calendar.FormatDate(date),
		"from", from,
		"season", to,
		"stability", s.state.Stability,
	)
	s.emit(bus.SeasonChanged{From: from, To: to, Date: date})
}

func (s *Simulation) dailyEffects(season calendar.Season) []effects.Effect {
	if len(s.dailyYield) == 0 {
		return nil
	}
	mult, ok := s.seasonYield[season]
	if !ok {
		mult = 1
	}
	amounts := make(map[string]float64, len(s.dailyYield))
	for name, base := range s.dailyYield {
		amounts[name] = base * mult
	}
	return []effects.Effect{effects.AddResources{Amounts: amounts}}
}

func (s *Simulation) monthlyReport(date calendar.GameDate) {
	attrs := []any{
		"day", date.TotalDays(),
		"time", calendar.FormatDate(date),
		"stability", s.state.Stability,
		"corruption", s.state.Corruption,
		"achievements", len(s.state.Achievements),
	}
	for _, name := range s.state.ResourceNames() {
		attrs = append(attrs, name, s.state.Resources[name])
	}
	slog.Info("monthly report", attrs...)
}

// emit publishes from inside a locked section. Handler errors are logged and
// the tick carries on.
func (s *Simulation) emit(e bus.Event) {
	if err := s.Bus.Emit(e); err != nil {
		slog.Warn("event handler failed", "event", e.EventType(), "error", err)
	}
}

// Snapshot returns an independent copy of the draft.
func (s *Simulation) Snapshot() *state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SaveBlob encodes the draft for persistence.
func (s *Simulation) SaveBlob() state.Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Blob()
}

// LastProcessedDay returns the last day TickDay ran for, as stored in the draft.
func (s *Simulation) LastProcessedDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastProcessedDay()
}

func (s *Simulation) lastProcessedDay() int {
	v, _ := s.state.Field(fieldLastProcessedDay)
	n, ok := state.Number(v)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

// PlaythroughID identifies the current run; Rebirth assigns a new one.
func (s *Simulation) PlaythroughID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playthroughID()
}

func (s *Simulation) playthroughID() string {
	v, _ := s.state.Field(fieldPlaythroughID)
	id, _ := v.(string)
	return id
}

// Rebirth starts a new playthrough: the draft returns to defaults except for
// unlocked achievements, and the clock restarts at day zero.
func (s *Simulation) Rebirth() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Achievements
	next := state.New()
	next.Achievements = append([]string(nil), kept...)
	id := uuid.NewString()
	next.SetField(fieldPlaythroughID, id)

	s.state = next
	s.day = 0
	s.lastWeather = ""
	s.Clock.Reset()

	slog.Info("new playthrough", "playthrough_id", id, "achievements_kept", len(kept))
	s.emit(bus.PlaythroughReset{PlaythroughID: id})
	return id
}

// RecentEvents returns up to n of the most recent logged events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if n >= 0 && len(s.Events) > n {
		start = len(s.Events) - n
	}
	return append([]Event(nil), s.Events[start:]...)
}

// record appends to the event log. Callers hold s.mu.
func (s *Simulation) record(category, description string) {
	s.Events = append(s.Events, Event{
		Day:         s.day,
		Description: description,
		Category:    category,
	})
	// Trim old events to prevent unbounded growth.
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}
