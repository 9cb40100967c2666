// Package weather derives a deterministic daily forecast from simplex noise
// and the season, and maps it to simulation effects.
package weather

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/idle-realm/internal/calendar"
	"github.com/talgya/idle-realm/internal/effects"
)

// Kind of weather.
type Kind string

// Weather kinds, from mildest to harshest per season.
const (
	Clear    Kind = "clear"
	Rain     Kind = "rain"
	Storm    Kind = "storm"
	Snow     Kind = "snow"
	Blizzard Kind = "blizzard"
	Heatwave Kind = "heatwave"
	Drought  Kind = "drought"
)

// Forecast is the weather of one game day.
type Forecast struct {
	Kind        Kind
	Description string
	Intensity   float64 // 0..1, how far into the band the noise sample fell
	TotalDays   int
	Season      calendar.Season
}

// Generator produces forecasts. The same seed and day always yield the same forecast.
type Generator struct {
	pressure opensimplex.Noise
	humidity opensimplex.Noise
}

// NewGenerator creates a generator with two independent noise layers.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		pressure: opensimplex.NewNormalized(seed),
		humidity: opensimplex.NewNormalized(seed + 1),
	}
}

// Weather fronts drift over roughly a week of game days.
const dayFrequency = 0.13

// ForDay returns the forecast for a total day count.
func (g *Generator) ForDay(totalDays int) Forecast {
	if totalDays < 0 {
		totalDays = 0
	}
	date := calendar.DaysToDate(totalDays)
	season := calendar.SeasonOf(date)

	x := float64(totalDays)
	pressure := octaveNoise(g.pressure, x, 0, 3, dayFrequency, 0.5)
	humidity := octaveNoise(g.humidity, x, 17, 2, dayFrequency, 0.5)

	kind, intensity := classify(season, pressure, humidity)
	return Forecast{
		Kind:        kind,
		Description: describe(kind, season),
		Intensity:   intensity,
		TotalDays:   totalDays,
		Season:      season,
	}
}

// classify maps noise samples in [0,1] to a weather band. Low pressure brings
// precipitation whose form depends on the season; high pressure with dry air
// brings heat in summer.
func classify(season calendar.Season, pressure, humidity float64) (Kind, float64) {
	switch {
	case pressure < 0.3 && humidity > 0.55:
		intensity := band(pressure, 0.3, 0)
		if season == calendar.SeasonWinter {
			if intensity > 0.5 {
				return Blizzard, intensity
			}
			return Snow, intensity
		}
		if intensity > 0.5 {
			return Storm, intensity
		}
		return Rain, intensity
	case pressure < 0.45 && humidity > 0.5:
		if season == calendar.SeasonWinter {
			return Snow, band(pressure, 0.45, 0.3)
		}
		return Rain, band(pressure, 0.45, 0.3)
	case pressure > 0.7 && humidity < 0.4 && season == calendar.SeasonSummer:
		intensity := band(pressure, 0.7, 1)
		if humidity < 0.25 {
			return Drought, intensity
		}
		return Heatwave, intensity
	}
	return Clear, 0
}

// band returns where v sits between from and to, clamped to 0..1.
func band(v, from, to float64) float64 {
	f := (v - from) / (to - from)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func describe(kind Kind, season calendar.Season) string {
	switch kind {
	case Rain:
		return "steady rain over the fields"
	case Storm:
		return "a violent storm batters the realm"
	case Snow:
		return "snow blankets the roads"
	case Blizzard:
		return "a blizzard cuts off the outlying farms"
	case Heatwave:
		return "a heatwave spoils the stores"
	case Drought:
		return "drought cracks the riverbeds"
	}
	return seasonDefault(season)
}

func seasonDefault(season calendar.Season) string {
	switch season {
	case calendar.SeasonSpring:
		return "mild spring weather"
	case calendar.SeasonSummer:
		return "warm summer sun"
	case calendar.SeasonAutumn:
		return "cool autumn breeze"
	case calendar.SeasonWinter:
		return "cold winter chill"
	default:
		return "fair weather"
	}
}

// Effects looks up the effects configured for a forecast's kind.
func Effects(f Forecast, table map[Kind][]effects.Effect) []effects.Effect {
	return table[f.Kind]
}

// DecodeTable turns configured specs keyed by weather kind into effects.
func DecodeTable(specs map[string][]effects.Spec) (map[Kind][]effects.Effect, error) {
	table := make(map[Kind][]effects.Effect, len(specs))
	for name, list := range specs {
		if !Known(Kind(name)) {
			return nil, fmt.Errorf("weather %q: unknown kind", name)
		}
		effs, err := effects.Decode(list)
		if err != nil {
			return nil, fmt.Errorf("weather %q: %w", name, err)
		}
		table[Kind(name)] = effs
	}
	return table, nil
}

// Known reports whether k is a weather kind this package can forecast.
func Known(k Kind) bool {
	switch k {
	case Clear, Rain, Storm, Snow, Blizzard, Heatwave, Drought:
		return true
	}
	return false
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
