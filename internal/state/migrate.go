package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"reflect"
)

// Migration upgrades a blob from schema version v to v+1.
type Migration func(Blob) Blob

// Migrations maps a source version to the migration that upgrades it.
type Migrations map[int]Migration

// ValidateAndMigrate turns any decoded input into a default-filled blob at
// currentVersion. It never fails: input that is not an object starts over
// from defaults, and missing migrations are no-op steps.
func ValidateAndMigrate(input any, currentVersion int, migrations Migrations) Blob {
	b := coerceObject(input)
	if b == nil {
		b = Blob{"version": currentVersion}
	}
	b = FillDefaults(b)

	from := readVersion(b["version"], currentVersion)
	for v := from; v < currentVersion; v++ {
		if m := migrations[v]; m != nil {
			b = applyMigration(v, m, b)
		}
		b["version"] = v + 1
	}

	// Migrations are trusted to produce the next shape; re-fill in case one
	// dropped a substructure.
	b = FillDefaults(b)
	b["version"] = currentVersion
	return b
}

// Version reads the schema version of a blob (0 when absent or malformed).
func Version(b Blob) int {
	return readVersion(b["version"], math.MaxInt32)
}

func readVersion(v any, ceiling int) int {
	n, ok := Number(v)
	if !ok || n <= 0 {
		return 0
	}
	if n >= float64(ceiling) {
		return ceiling
	}
	return int(math.Floor(n))
}

// applyMigration runs m on a copy so a panicking migration leaves b untouched.
func applyMigration(v int, m Migration, b Blob) (out Blob) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("save migration panicked, skipping step",
				"from_version", v,
				"panic", fmt.Sprint(r),
			)
			out = b
		}
	}()

	next := m(Clone(b))
	if next == nil {
		slog.Warn("save migration returned nil, skipping step", "from_version", v)
		return b
	}
	slog.Debug("save migrated", "from_version", v, "to_version", v+1)
	return next
}

// coerceObject returns input as a fresh blob, or nil if it is not an object.
func coerceObject(input any) Blob {
	switch t := input.(type) {
	case nil:
		return nil
	case map[string]any:
		return normalize(t).(map[string]any)
	case []byte:
		return decodeObject(t)
	case json.RawMessage:
		return decodeObject(t)
	case string:
		return decodeObject([]byte(t))
	case *State:
		if t == nil {
			return nil
		}
		return t.Blob()
	}

	// Typed maps and structs: round-trip through JSON.
	raw, err := json.Marshal(input)
	if err != nil {
		return nil
	}
	return decodeObject(raw)
}

// normalize converts v to its JSON-tree form: typed maps and slices become
// map[string]any and []any, leaves are round-tripped through JSON. A leaf JSON
// cannot encode, such as NaN, is kept as is so its siblings survive.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case []byte, json.RawMessage:
		return roundTrip(v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return roundTrip(v)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return roundTrip(v)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	}
	return roundTrip(v)
}

func roundTrip(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func decodeObject(raw []byte) Blob {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}
