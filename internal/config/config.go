// Package config loads simulation tuning from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/idle-realm/internal/calendar"
	"github.com/talgya/idle-realm/internal/effects"
	"github.com/talgya/idle-realm/internal/weather"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the simulation tuning. Fields absent from the file keep their defaults.
type Config struct {
	DaysPerSecond    float64       `yaml:"days_per_second" env:"IDLE_DAYS_PER_SECOND"`
	TickInterval     time.Duration `yaml:"tick_interval" env:"IDLE_TICK_INTERVAL"`
	AutosaveInterval time.Duration `yaml:"autosave_interval" env:"IDLE_AUTOSAVE_INTERVAL"`

	DBPath    string `yaml:"db_path" env:"IDLE_DB_PATH"`
	Slot      string `yaml:"slot" env:"IDLE_SLOT"`
	KeepSaves int    `yaml:"keep_saves" env:"IDLE_KEEP_SAVES"`

	WeatherSeed int64  `yaml:"weather_seed" env:"IDLE_WEATHER_SEED"`
	LogLevel    string `yaml:"log_level" env:"IDLE_LOG_LEVEL"`

	// Base resource income per game day.
	DailyYield map[string]float64 `yaml:"daily_yield"`
	// Multiplier on DailyYield per season name.
	SeasonYield map[string]float64 `yaml:"season_yield"`
	// Effects applied on days with the given weather kind.
	Weather map[string][]effects.Spec `yaml:"weather"`
}

// Default returns the built-in tuning.
func Default() Config {
	return Config{
		DaysPerSecond:    calendar.DaysPerSecond,
		TickInterval:     250 * time.Millisecond,
		AutosaveInterval: 30 * time.Second,
		DBPath:           "data/realm.db",
		Slot:             "default",
		KeepSaves:        5,
		WeatherSeed:      42,
		LogLevel:         "info",
		DailyYield: map[string]float64{
			"food":  3,
			"wood":  2,
			"stone": 1,
			"gold":  0.5,
		},
		SeasonYield: map[string]float64{
			"spring": 1.2,
			"summer": 1.0,
			"autumn": 1.5, // harvest
			"winter": 0.5,
		},
		Weather: map[string][]effects.Spec{
			"storm": {
				{Kind: string(effects.KindAddStability), Payload: -1},
				{Kind: string(effects.KindAddResources), Payload: map[string]any{"wood": -2}},
			},
			"blizzard": {
				{Kind: string(effects.KindAddResources), Payload: map[string]any{"food": -4}},
				{Kind: string(effects.KindAddStability), Payload: -2},
			},
			"drought": {
				{Kind: string(effects.KindAddResources), Payload: map[string]any{"food": -3}},
				{Kind: string(effects.KindAddCorruption), Payload: 0.5},
			},
			"heatwave": {
				{Kind: string(effects.KindAddResources), Payload: map[string]any{"food": -1}},
			},
			"rain": {
				{Kind: string(effects.KindAddResources), Payload: map[string]any{"food": 1}},
			},
		},
	}
}

// Load reads the tuning file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects tuning the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.DaysPerSecond <= 0:
		return fmt.Errorf("%w: days_per_second must be positive", ErrInvalid)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tick_interval must be positive", ErrInvalid)
	case c.AutosaveInterval <= 0:
		return fmt.Errorf("%w: autosave_interval must be positive", ErrInvalid)
	case c.Slot == "":
		return fmt.Errorf("%w: slot is required", ErrInvalid)
	case c.KeepSaves < 1:
		return fmt.Errorf("%w: keep_saves must be at least 1", ErrInvalid)
	}
	for name := range c.SeasonYield {
		if _, ok := calendar.ParseSeason(name); !ok {
			return fmt.Errorf("%w: season_yield: unknown season %q", ErrInvalid, name)
		}
	}
	if _, err := c.WeatherEffects(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return nil
}

// WeatherEffects decodes the weather table.
func (c Config) WeatherEffects() (map[weather.Kind][]effects.Effect, error) {
	return weather.DecodeTable(c.Weather)
}

// SeasonMultipliers returns the yield multiplier for every season,
// defaulting to 1 for seasons the config leaves out.
func (c Config) SeasonMultipliers() map[calendar.Season]float64 {
	out := make(map[calendar.Season]float64, len(calendar.AllSeasons))
	for _, s := range calendar.AllSeasons {
		out[s] = 1
	}
	for name, mult := range c.SeasonYield {
		if s, ok := calendar.ParseSeason(name); ok {
			out[s] = mult
		}
	}
	return out
}

// SlogLevel returns the configured log level, info if unparseable.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
