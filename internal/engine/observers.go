package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/calendar"
	"github.com/talgya/idle-realm/internal/weather"
)

// observe subscribes the notification log. Handlers run under s.mu.
func (s *Simulation) observe() {
	bus.On(s.Bus, func(n bus.Notification) error {
		switch n.Level {
		case bus.LevelWarning:
			slog.Warn("notification", "day", s.day, "message", n.Message)
		default:
			slog.Info("notification", "day", s.day, "message", n.Message)
		}
		s.record("notification", n.Message)
		return nil
	})

	bus.On(s.Bus, func(e bus.WeatherChanged) error {
		s.record("weather", e.Description)
		if severe(weather.Kind(e.Kind)) {
			return s.Bus.Emit(bus.Notification{Level: bus.LevelWarning, Message: capitalize(e.Description)})
		}
		return nil
	})

	bus.On(s.Bus, func(e bus.SeasonChanged) error {
		s.record("season", fmt.Sprintf("%s gives way to %s", e.From, e.To))
		return nil
	})

	bus.On(s.Bus, func(e bus.AchievementUnlocked) error {
		s.record("achievement", e.Title)
		return s.Bus.Emit(bus.Notification{
			Level:   bus.LevelInfo,
			Message: fmt.Sprintf("Achievement unlocked: %s (%s)", e.Title, calendar.FormatDate(e.Date)),
		})
	})

	bus.On(s.Bus, func(e bus.GameLoaded) error {
		if e.Fresh {
			s.record("save", "a new realm is founded")
			return nil
		}
		s.record("save", fmt.Sprintf("realm restored from save v%d", e.FromVersion))
		return nil
	})

	bus.On(s.Bus, func(e bus.GameSaved) error {
		slog.Debug("saved", "save_id", e.SaveID, "bytes", e.Bytes)
		return nil
	})

	bus.On(s.Bus, func(e bus.PlaythroughReset) error {
		s.record("rebirth", "the realm is reborn")
		return nil
	})
}

func severe(k weather.Kind) bool {
	switch k {
	case weather.Storm, weather.Blizzard, weather.Drought, weather.Heatwave:
		return true
	}
	return false
}

func capitalize(msg string) string {
	if msg == "" || msg[0] < 'a' || msg[0] > 'z' {
		return msg
	}
	return string(msg[0]-'a'+'A') + msg[1:]
}
