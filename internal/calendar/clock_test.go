package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestClock() (*Clock, *FakeTime) {
	fake := NewFakeTime(epoch)
	return New(WithTimeSource(fake)), fake
}

func TestDaysToDate_RoundTrip(t *testing.T) {
	for d := 0; d < 3*DaysPerYear+17; d++ {
		date := DaysToDate(d)
		require.GreaterOrEqual(t, date.Month, 0)
		require.Less(t, date.Month, MonthsPerYear)
		require.GreaterOrEqual(t, date.Day, 1)
		require.LessOrEqual(t, date.Day, DaysPerMonth)
		require.Equal(t, d, date.Year*360+date.Month*30+(date.Day-1), "day %d", d)
		require.Equal(t, d, date.TotalDays())
	}
}

func TestDaysToDate_Boundaries(t *testing.T) {
	assert.Equal(t, GameDate{Year: 0, Month: 0, Day: 1}, DaysToDate(0))
	assert.Equal(t, GameDate{Year: 0, Month: 0, Day: 30}, DaysToDate(29))
	assert.Equal(t, GameDate{Year: 0, Month: 1, Day: 1}, DaysToDate(30))
	assert.Equal(t, GameDate{Year: 0, Month: 11, Day: 30}, DaysToDate(359))
	assert.Equal(t, GameDate{Year: 1, Month: 0, Day: 1}, DaysToDate(360))
	assert.Equal(t, GameDate{Year: 0, Month: 0, Day: 1}, DaysToDate(-5))
}

func TestSeasonOf_FixedMonths(t *testing.T) {
	cases := map[int]Season{
		0: SeasonWinter, 1: SeasonWinter,
		2: SeasonSpring, 3: SeasonSpring, 4: SeasonSpring,
		5: SeasonSummer, 6: SeasonSummer, 7: SeasonSummer,
		8: SeasonAutumn, 9: SeasonAutumn, 10: SeasonAutumn,
		11: SeasonWinter,
	}
	for month, want := range cases {
		for _, year := range []int{0, 1, 57} {
			got := SeasonOf(GameDate{Year: year, Month: month, Day: 15})
			assert.Equal(t, want, got, "month %d year %d", month, year)
		}
	}
}

func TestSeasonOf_DependsOnlyOnDayOfYear(t *testing.T) {
	for d := 0; d < DaysPerYear; d++ {
		want := SeasonOf(DaysToDate(d))
		assert.Equal(t, want, SeasonOf(DaysToDate(d+DaysPerYear*5)))
	}
}

func TestCurrentTime_TwoDaysPerSecond(t *testing.T) {
	c, fake := newTestClock()

	assert.Equal(t, 0, c.CurrentTime().TotalDays)

	fake.Advance(1500 * time.Millisecond)
	gt := c.CurrentTime()
	assert.Equal(t, 3, gt.TotalDays)
	assert.Equal(t, GameDate{Year: 0, Month: 0, Day: 4}, gt.CurrentDate)
	assert.Equal(t, epoch, gt.StartEpoch)

	fake.Advance(180 * time.Second)
	assert.Equal(t, 363, c.CurrentTime().TotalDays)
	assert.Equal(t, GameDate{Year: 1, Month: 0, Day: 4}, c.CurrentTime().CurrentDate)
}

func TestCurrentTime_IdempotentAndNonDecreasing(t *testing.T) {
	c, fake := newTestClock()
	fake.Advance(42 * time.Second)

	first := c.CurrentTime()
	second := c.CurrentTime()
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, first.TotalDays, second.TotalDays)

	wall := New()
	a := wall.CurrentTime().TotalDays
	b := wall.CurrentTime().TotalDays
	assert.LessOrEqual(t, a, b)
}

func TestCurrentTime_FutureEpochClampsToZero(t *testing.T) {
	c, _ := newTestClock()
	c.SetStartTime(epoch.Add(time.Hour))

	gt := c.CurrentTime()
	assert.Equal(t, 0, gt.TotalDays)
	assert.Equal(t, GameDate{Year: 0, Month: 0, Day: 1}, gt.CurrentDate)
}

func TestReset_ZeroesElapsed(t *testing.T) {
	c, fake := newTestClock()
	fake.Advance(10 * time.Second)
	require.Equal(t, 20, c.CurrentTime().TotalDays)

	c.Reset()
	assert.Equal(t, 0, c.CurrentTime().TotalDays)
	assert.Equal(t, fake.Now(), c.StartTime())
}

func TestSetStartTime_ResumesPersistedEpoch(t *testing.T) {
	c, fake := newTestClock()
	fake.Advance(time.Minute)

	resumed := New(WithTimeSource(fake))
	resumed.SetStartTime(c.StartTime())

	assert.Equal(t, c.CurrentTime(), resumed.CurrentTime())
	assert.Equal(t, 120, resumed.CurrentTime().TotalDays)
}

func TestWithDaysPerSecond(t *testing.T) {
	fake := NewFakeTime(epoch)
	c := New(WithTimeSource(fake), WithDaysPerSecond(0.5))
	fake.Advance(9 * time.Second)
	assert.Equal(t, 4, c.CurrentTime().TotalDays)

	ignored := New(WithTimeSource(fake), WithDaysPerSecond(-1))
	assert.Equal(t, DaysPerSecond, ignored.DaysPerSecond())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Day 1 of Deepfrost, Year 1 (Winter)", FormatDate(DaysToDate(0)))
	assert.Equal(t, "Day 12 of Rains, Year 3 (Spring)", FormatDate(GameDate{Year: 2, Month: 3, Day: 12}))
	assert.Equal(t, "Autumn", SeasonName(SeasonAutumn))
	assert.Equal(t, "Unknown", SeasonName(Season(9)))
}

func TestParseSeason(t *testing.T) {
	s, ok := ParseSeason("winter")
	require.True(t, ok)
	assert.Equal(t, SeasonWinter, s)

	_, ok = ParseSeason("monsoon")
	assert.False(t, ok)
}

func TestResumeAt(t *testing.T) {
	c, ft := newTestClock()
	ft.Advance(time.Hour)

	c.ResumeAt(725)
	assert.Equal(t, 725, c.CurrentTime().TotalDays)

	ft.Advance(time.Second)
	assert.Equal(t, 727, c.CurrentTime().TotalDays)

	c.ResumeAt(-3)
	assert.Equal(t, 0, c.CurrentTime().TotalDays)
}
