package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/calendar"
	"github.com/talgya/idle-realm/internal/effects"
	"github.com/talgya/idle-realm/internal/state"
	"github.com/talgya/idle-realm/internal/weather"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// days converts a game-day count to wall time at the default rate.
func days(n int) time.Duration {
	return time.Duration(float64(n) / calendar.DaysPerSecond * float64(time.Second))
}

func newTestEngine() (*Engine, *calendar.FakeTime) {
	ft := calendar.NewFakeTime(epoch)
	return NewEngine(calendar.New(calendar.WithTimeSource(ft))), ft
}

func TestStep_OneCallbackPerElapsedDay(t *testing.T) {
	e, ft := newTestEngine()
	var got []int
	e.OnDay = func(total int, _ calendar.GameDate) { got = append(got, total) }

	assert.Equal(t, 0, e.Step())

	ft.Advance(5 * time.Second) // 10 days
	assert.Equal(t, 10, e.Step())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)

	assert.Equal(t, 0, e.Step(), "no time passed")
	assert.Equal(t, 10, e.LastDay())
}

func TestStep_SeasonBoundaries(t *testing.T) {
	e, ft := newTestEngine()
	type change struct {
		from, to calendar.Season
		day      int
	}
	var changes []change
	e.OnSeason = func(from, to calendar.Season, d calendar.GameDate) {
		changes = append(changes, change{from, to, d.TotalDays()})
	}

	ft.Advance(days(calendar.DaysPerYear))
	e.Step()

	assert.Equal(t, []change{
		{calendar.SeasonWinter, calendar.SeasonSpring, 60},
		{calendar.SeasonSpring, calendar.SeasonSummer, 150},
		{calendar.SeasonSummer, calendar.SeasonAutumn, 240},
		{calendar.SeasonAutumn, calendar.SeasonWinter, 330},
	}, changes)
}

func TestStep_SeasonFiresBeforeDay(t *testing.T) {
	e, ft := newTestEngine()
	e.Resume(59)
	var order []string
	e.OnSeason = func(_, _ calendar.Season, _ calendar.GameDate) { order = append(order, "season") }
	e.OnDay = func(int, calendar.GameDate) { order = append(order, "day") }

	ft.Advance(days(60))
	e.Step()
	assert.Equal(t, []string{"season", "day"}, order)
}

func TestStep_CatchUpIsCapped(t *testing.T) {
	e, ft := newTestEngine()
	e.MaxCatchUp = 5
	var got []int
	e.OnDay = func(total int, _ calendar.GameDate) { got = append(got, total) }

	ft.Advance(days(100))
	assert.Equal(t, 5, e.Step())
	assert.Equal(t, []int{96, 97, 98, 99, 100}, got)
}

func TestStep_ResyncsAfterClockReset(t *testing.T) {
	e, ft := newTestEngine()
	ft.Advance(days(40))
	e.Step()
	require.Equal(t, 40, e.LastDay())

	e.Clock.Reset()
	assert.Equal(t, 0, e.Step())
	assert.Equal(t, 0, e.LastDay())

	ft.Advance(days(3))
	assert.Equal(t, 3, e.Step())
}

func TestResume_SkipsProcessedDays(t *testing.T) {
	e, ft := newTestEngine()
	e.Resume(20)
	var first int
	e.OnDay = func(total int, _ calendar.GameDate) {
		if first == 0 {
			first = total
		}
	}
	ft.Advance(days(25))
	assert.Equal(t, 5, e.Step())
	assert.Equal(t, 21, first)
}

type recorder struct {
	events []bus.Event
}

func (r *recorder) listen(b *bus.Bus) {
	bus.On(b, func(e bus.DayAdvanced) error { r.events = append(r.events, e); return nil })
	bus.On(b, func(e bus.WeatherChanged) error { r.events = append(r.events, e); return nil })
	bus.On(b, func(e bus.AchievementUnlocked) error { r.events = append(r.events, e); return nil })
	bus.On(b, func(e bus.PlaythroughReset) error { r.events = append(r.events, e); return nil })
}

func count[E bus.Event](r *recorder) int {
	n := 0
	for _, e := range r.events {
		if _, ok := e.(E); ok {
			n++
		}
	}
	return n
}

func newTestSim(t *testing.T, opts Options) (*Simulation, *calendar.FakeTime, *recorder) {
	t.Helper()
	ft := calendar.NewFakeTime(epoch)
	sim := NewSimulation(nil, calendar.New(calendar.WithTimeSource(ft)), opts)
	r := &recorder{}
	r.listen(sim.Bus)
	return sim, ft, r
}

func TestTickDay_SeasonalYield(t *testing.T) {
	sim, _, r := newTestSim(t, Options{
		DailyYield:  map[string]float64{"food": 2, "wood": 1},
		SeasonYield: map[calendar.Season]float64{calendar.SeasonWinter: 0.5},
	})

	sim.TickDay(1, calendar.DaysToDate(1))   // winter
	sim.TickDay(70, calendar.DaysToDate(70)) // spring, no multiplier configured

	snap := sim.Snapshot()
	assert.Equal(t, 3.0, snap.Resources["food"])
	assert.Equal(t, 1.5, snap.Resources["wood"])
	assert.Equal(t, 70, sim.LastProcessedDay())
	assert.Equal(t, 2, count[bus.DayAdvanced](r))
	assert.Zero(t, count[bus.WeatherChanged](r), "weather disabled")
}

func TestTickDay_WeatherAnnouncedOnChange(t *testing.T) {
	gen := weather.NewGenerator(7)
	sim, _, r := newTestSim(t, Options{Weather: gen})

	sim.TickDay(1, calendar.DaysToDate(1))
	sim.TickDay(1, calendar.DaysToDate(1))
	assert.Equal(t, 1, count[bus.WeatherChanged](r), "same forecast twice is one change")

	wc := r.events[0].(bus.WeatherChanged)
	assert.Equal(t, string(gen.ForDay(1).Kind), wc.Kind)
}

func TestTickDay_WeatherEffectsApplied(t *testing.T) {
	gen := weather.NewGenerator(7)
	kind := gen.ForDay(3).Kind
	sim, _, _ := newTestSim(t, Options{
		Weather: gen,
		WeatherTable: map[weather.Kind][]effects.Effect{
			kind: {effects.AddCorruption{Amount: 2}},
		},
	})

	sim.TickDay(3, calendar.DaysToDate(3))
	assert.Equal(t, 2.0, sim.Snapshot().Corruption)
}

func TestTickDay_HandlerErrorDoesNotStopTick(t *testing.T) {
	sim, _, r := newTestSim(t, Options{DailyYield: map[string]float64{"food": 1}})
	bus.On(sim.Bus, func(bus.ResourcesChanged) error { return assert.AnError })

	sim.TickDay(1, calendar.DaysToDate(1))
	assert.Equal(t, 1.0, sim.Snapshot().Resources["food"], "effect applied before the handler failed")
	assert.Equal(t, 1, count[bus.DayAdvanced](r))
	assert.Equal(t, 1, sim.LastProcessedDay())
}

func TestAchievements_UnlockOnce(t *testing.T) {
	sim, _, r := newTestSim(t, Options{})

	sim.TickDay(360, calendar.DaysToDate(360))
	sim.TickDay(361, calendar.DaysToDate(361))

	snap := sim.Snapshot()
	assert.Equal(t, []string{AchievementFirstYear}, snap.Achievements)
	require.Equal(t, 1, count[bus.AchievementUnlocked](r))

	var notes []string
	for _, e := range sim.RecentEvents(10) {
		if e.Category == "notification" {
			notes = append(notes, e.Description)
		}
	}
	assert.Equal(t, []string{"Achievement unlocked: A year of rule (Day 1 of Deepfrost, Year 2 (Winter))"}, notes)
}

func TestAchievements_FromEffects(t *testing.T) {
	sim, _, r := newTestSim(t, Options{})

	require.NoError(t, sim.Apply(
		effects.AddResources{Amounts: map[string]float64{"food": GranaryThreshold}},
		effects.AddStability{Amount: -60},
	))

	snap := sim.Snapshot()
	assert.ElementsMatch(t, []string{AchievementGranary, AchievementUnrest}, snap.Achievements)
	assert.Equal(t, 2, count[bus.AchievementUnlocked](r))
}

func TestAchievements_FirstWinter(t *testing.T) {
	sim, _, _ := newTestSim(t, Options{})
	sim.TickSeason(calendar.SeasonWinter, calendar.SeasonSpring, calendar.DaysToDate(60))
	sim.TickSeason(calendar.SeasonSpring, calendar.SeasonSummer, calendar.DaysToDate(150))

	assert.Equal(t, []string{AchievementFirstWinter}, sim.Snapshot().Achievements)
}

func TestRebirth(t *testing.T) {
	sim, ft, r := newTestSim(t, Options{})
	ft.Advance(days(500))
	require.NoError(t, sim.Apply(effects.AddResources{Amounts: map[string]float64{"gold": 40}}))
	sim.TickDay(500, calendar.DaysToDate(500))
	before := sim.PlaythroughID()

	id := sim.Rebirth()

	snap := sim.Snapshot()
	assert.NotEqual(t, before, id)
	assert.Equal(t, id, sim.PlaythroughID())
	assert.Zero(t, snap.Resources["gold"])
	assert.Equal(t, state.DefaultStability, snap.Stability)
	assert.Equal(t, []string{AchievementFirstYear}, snap.Achievements)
	assert.Equal(t, 0, sim.LastProcessedDay())
	assert.Equal(t, 0, sim.Clock.CurrentTime().TotalDays)
	assert.Equal(t, 1, count[bus.PlaythroughReset](r))
}

func TestNewSimulation_KeepsPlaythroughAcrossSaves(t *testing.T) {
	sim, _, _ := newTestSim(t, Options{})
	sim.TickDay(12, calendar.DaysToDate(12))
	blob := sim.SaveBlob()

	restored := NewSimulation(state.FromBlob(blob), sim.Clock, Options{})
	assert.Equal(t, sim.PlaythroughID(), restored.PlaythroughID())
	assert.Equal(t, 12, restored.LastProcessedDay())
}

func TestRecentEvents_Bounded(t *testing.T) {
	sim, _, _ := newTestSim(t, Options{})
	for i := 0; i < maxEvents+50; i++ {
		require.NoError(t, sim.Publish(bus.Notification{Message: "tick"}))
	}
	assert.Len(t, sim.RecentEvents(-1), maxEvents)
	assert.Len(t, sim.RecentEvents(3), 3)
}

func TestEngineDrivesSimulation(t *testing.T) {
	sim, ft, r := newTestSim(t, Options{DailyYield: map[string]float64{"food": 1}})
	e := NewEngine(sim.Clock)
	e.OnDay = sim.TickDay
	e.OnSeason = sim.TickSeason

	ft.Advance(days(400))
	e.Step()

	assert.Equal(t, 400, count[bus.DayAdvanced](r))
	assert.Equal(t, 400, sim.LastProcessedDay())
	assert.ElementsMatch(t, []string{AchievementFirstWinter, AchievementFirstYear}, sim.Snapshot().Achievements)
}

func TestStep_RebirthReplaysNewPlaythroughFromDayOne(t *testing.T) {
	sim, ft, _ := newTestSim(t, Options{DailyYield: map[string]float64{"food": 1}})
	e := NewEngine(sim.Clock)
	var ticked []int
	e.OnDay = func(total int, date calendar.GameDate) {
		ticked = append(ticked, total)
		sim.TickDay(total, date)
	}

	ft.Advance(days(2))
	require.Equal(t, 2, e.Step())

	sim.Rebirth()
	ticked = nil
	ft.Advance(days(3))

	assert.Equal(t, 3, e.Step())
	assert.Equal(t, []int{1, 2, 3}, ticked)
	assert.Equal(t, 3.0, sim.Snapshot().Resources["food"])
	assert.Equal(t, 3, sim.LastProcessedDay())
}

func TestStep_SourceSteppingBackResyncs(t *testing.T) {
	e, ft := newTestEngine()
	ft.Advance(days(10))
	e.Step()

	ft.Set(epoch.Add(days(4)))
	assert.Equal(t, 0, e.Step())
	assert.Equal(t, 4, e.LastDay())
}
