// Package state defines the persisted save blob: its canonical defaults,
// versioned migrations and the typed draft the simulation mutates.
//
// The blob is kept as a generic JSON tree so fields this build does not know
// about survive a load/save cycle untouched.
package state

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Blob is a decoded save: a JSON object tree.
type Blob = map[string]any

// Canonical defaults.
const (
	DefaultStability  = 50.0
	DefaultCorruption = 0.0
)

// DefaultResources returns the resource stock of a new playthrough.
func DefaultResources() map[string]float64 {
	return map[string]float64{
		"food":  0,
		"wood":  0,
		"stone": 0,
		"gold":  0,
	}
}

// FillDefaults makes every well-known substructure present with the right
// shape. Partial substructures are completed field by field and unknown
// sibling fields are kept. The blob is modified in place and returned; a nil
// blob yields a fresh one.
func FillDefaults(b Blob) Blob {
	if b == nil {
		b = Blob{}
	}
	b["resources"] = fillNumberMap(b["resources"], DefaultResources())
	b["stability"] = numberOr(b["stability"], DefaultStability)
	b["corruption"] = numberOr(b["corruption"], DefaultCorruption)
	b["exploration"] = fillExploration(b["exploration"])
	b["diplomacy"] = fillDiplomacy(b["diplomacy"])
	b["achievements"] = fillStringList(b["achievements"])
	return b
}

func fillExploration(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	m["discoveredLocations"] = fillStringList(m["discoveredLocations"])
	m["explorationPoints"] = numberOr(m["explorationPoints"], 0)
	if _, ok := m["explorationHistory"].([]any); !ok {
		m["explorationHistory"] = []any{}
	}
	return m
}

func fillDiplomacy(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	m["relations"] = fillNumberMap(m["relations"], nil)
	m["treaties"] = fillStringList(m["treaties"])
	m["envoys"] = numberOr(m["envoys"], 0)
	return m
}

// fillNumberMap coerces every entry to a number (0 when it cannot be) and adds
// missing default keys.
func fillNumberMap(v any, defaults map[string]float64) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	for k, val := range m {
		m[k] = numberOr(val, 0)
	}
	for k, d := range defaults {
		if _, ok := m[k]; !ok {
			m[k] = d
		}
	}
	return m
}

// fillStringList keeps the string entries of a list.
func fillStringList(v any) []any {
	out := []any{}
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range list {
			out = append(out, s)
		}
	}
	return out
}

func numberOr(v any, fallback float64) float64 {
	if n, ok := Number(v); ok {
		return n
	}
	return fallback
}

// Number converts a decoded JSON value to a finite float64. Numeric strings
// are accepted; booleans, NaN and infinities are not.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Clone deep-copies a blob.
func Clone(b Blob) Blob {
	if b == nil {
		return nil
	}
	return cloneValue(b).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
