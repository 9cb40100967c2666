package engine

import (
	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/calendar"
)

// Achievement IDs as stored in the save.
const (
	AchievementFirstWinter = "first-winter"
	AchievementFirstYear   = "first-year"
	AchievementDecade      = "decade"
	AchievementGranary     = "granary"
	AchievementUnrest      = "unrest"
)

// GranaryThreshold is the food stockpile that unlocks AchievementGranary.
const GranaryThreshold = 1000

var achievementTitles = map[string]string{
	AchievementFirstWinter: "Survived the first winter",
	AchievementFirstYear:   "A year of rule",
	AchievementDecade:      "A decade of rule",
	AchievementGranary:     "Overflowing granary",
	AchievementUnrest:      "The realm in unrest",
}

// AchievementTitle returns the display title of an achievement ID.
func AchievementTitle(id string) string {
	if t, ok := achievementTitles[id]; ok {
		return t
	}
	return id
}

// trackAchievements subscribes the milestone checks. Each unlock is recorded
// in the draft once and announced from inside the triggering dispatch.
func (s *Simulation) trackAchievements() {
	bus.On(s.Bus, func(e bus.SeasonChanged) error {
		if e.From == calendar.SeasonWinter && e.To == calendar.SeasonSpring {
			return s.unlock(AchievementFirstWinter)
		}
		return nil
	})

	bus.On(s.Bus, func(e bus.DayAdvanced) error {
		if e.Date.Year >= 1 {
			if err := s.unlock(AchievementFirstYear); err != nil {
				return err
			}
		}
		if e.Date.Year >= 10 {
			return s.unlock(AchievementDecade)
		}
		return nil
	})

	bus.On(s.Bus, func(e bus.ResourcesChanged) error {
		if e.Totals["food"] >= GranaryThreshold {
			return s.unlock(AchievementGranary)
		}
		return nil
	})

	bus.On(s.Bus, func(e bus.StabilityChanged) error {
		if e.Value < 0 {
			return s.unlock(AchievementUnrest)
		}
		return nil
	})
}

// unlock marks id as achieved. Callers hold s.mu.
func (s *Simulation) unlock(id string) error {
	if s.state.HasAchievement(id) {
		return nil
	}
	s.state.Achievements = append(s.state.Achievements, id)
	return s.Bus.Emit(bus.AchievementUnlocked{
		ID:    id,
		Title: AchievementTitle(id),
		Date:  calendar.DaysToDate(s.day),
	})
}
