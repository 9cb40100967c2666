package bus

import "github.com/talgya/idle-realm/internal/calendar"

// EventType names an event on the bus.
type EventType string

// Event is implemented by every payload in the closed event contract below.
type Event interface {
	EventType() EventType
}

// Event types.
const (
	TypeResourcesChanged    EventType = "resources.changed"
	TypeStabilityChanged    EventType = "stability.changed"
	TypeCorruptionChanged   EventType = "corruption.changed"
	TypeDayAdvanced         EventType = "calendar.day"
	TypeSeasonChanged       EventType = "calendar.season"
	TypeWeatherChanged      EventType = "weather.changed"
	TypeAchievementUnlocked EventType = "achievement.unlocked"
	TypeNotification        EventType = "notification"
	TypeGameSaved           EventType = "game.saved"
	TypeGameLoaded          EventType = "game.loaded"
	TypePlaythroughReset    EventType = "game.reset"
)

// ResourcesChanged reports the applied deltas and resulting totals of the
// touched resources.
type ResourcesChanged struct {
	Deltas map[string]float64 `json:"deltas"`
	Totals map[string]float64 `json:"totals"`
}

// StabilityChanged reports a stability shift and the resulting value.
type StabilityChanged struct {
	Delta float64 `json:"delta"`
	Value float64 `json:"value"`
}

// CorruptionChanged reports a corruption shift and the clamped result.
type CorruptionChanged struct {
	Delta float64 `json:"delta"`
	Value float64 `json:"value"`
}

// DayAdvanced is emitted once per elapsed game day.
type DayAdvanced struct {
	TotalDays int               `json:"total_days"`
	Date      calendar.GameDate `json:"date"`
}

// SeasonChanged is emitted when a processed day crosses into a new season.
type SeasonChanged struct {
	From calendar.Season   `json:"from"`
	To   calendar.Season   `json:"to"`
	Date calendar.GameDate `json:"date"`
}

// WeatherChanged carries the weather rolled for a day.
type WeatherChanged struct {
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Intensity   float64 `json:"intensity"`
	TotalDays   int     `json:"total_days"`
}

// AchievementUnlocked is emitted the first time an achievement is earned.
type AchievementUnlocked struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Date  calendar.GameDate `json:"date"`
}

// Level of a Notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Notification is a human-readable message for the presentation layer.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// GameSaved is emitted after a save is written to its slot.
type GameSaved struct {
	SaveID  string `json:"save_id"`
	Slot    string `json:"slot"`
	Version int    `json:"version"`
	Bytes   int    `json:"bytes"`
}

// GameLoaded is emitted once state has been loaded and migrated.
type GameLoaded struct {
	Slot        string `json:"slot"`
	FromVersion int    `json:"from_version"`
	Version     int    `json:"version"`
	Fresh       bool   `json:"fresh"`
}

// PlaythroughReset is emitted when a rebirth starts a new playthrough.
type PlaythroughReset struct {
	PlaythroughID string `json:"playthrough_id"`
}

// EventType implementations for the closed contract.
func (ResourcesChanged) EventType() EventType    { return TypeResourcesChanged }
func (StabilityChanged) EventType() EventType    { return TypeStabilityChanged }
func (CorruptionChanged) EventType() EventType   { return TypeCorruptionChanged }
func (DayAdvanced) EventType() EventType         { return TypeDayAdvanced }
func (SeasonChanged) EventType() EventType       { return TypeSeasonChanged }
func (WeatherChanged) EventType() EventType      { return TypeWeatherChanged }
func (AchievementUnlocked) EventType() EventType { return TypeAchievementUnlocked }
func (Notification) EventType() EventType        { return TypeNotification }
func (GameSaved) EventType() EventType           { return TypeGameSaved }
func (GameLoaded) EventType() EventType          { return TypeGameLoaded }
func (PlaythroughReset) EventType() EventType    { return TypePlaythroughReset }
