package state

import "sort"

// State is the typed draft the simulation mutates. Fields the schema does not
// know about are carried in the underlying blob and written back unchanged.
type State struct {
	Version      int
	Resources    map[string]float64
	Stability    float64
	Corruption   float64
	Exploration  Exploration
	Diplomacy    Diplomacy
	Achievements []string

	base Blob
}

// Exploration is the typed view of the exploration object.
type Exploration struct {
	DiscoveredLocations []string
	ExplorationPoints   float64
	ExplorationHistory  []any
}

// Diplomacy is the typed view of the diplomacy object.
type Diplomacy struct {
	Relations map[string]float64
	Treaties  []string
	Envoys    float64
}

// New returns the state of a fresh playthrough at CurrentVersion.
func New() *State {
	return FromBlob(Blob{"version": CurrentVersion})
}

// FromBlob builds a draft from a blob. The blob is copied and default-filled
// first, so any blob is accepted.
func FromBlob(b Blob) *State {
	filled := FillDefaults(Clone(b))

	s := &State{
		Version:    Version(filled),
		Resources:  toFloatMap(filled["resources"]),
		Stability:  numberOr(filled["stability"], DefaultStability),
		Corruption: numberOr(filled["corruption"], DefaultCorruption),
		base:       filled,
	}

	exp := filled["exploration"].(map[string]any)
	s.Exploration = Exploration{
		DiscoveredLocations: toStrings(exp["discoveredLocations"]),
		ExplorationPoints:   numberOr(exp["explorationPoints"], 0),
		ExplorationHistory:  cloneValue(exp["explorationHistory"]).([]any),
	}

	dip := filled["diplomacy"].(map[string]any)
	s.Diplomacy = Diplomacy{
		Relations: toFloatMap(dip["relations"]),
		Treaties:  toStrings(dip["treaties"]),
		Envoys:    numberOr(dip["envoys"], 0),
	}

	s.Achievements = toStrings(filled["achievements"])
	return s
}

// Blob encodes the draft, overlaying the typed fields onto the blob it was
// loaded from.
func (s *State) Blob() Blob {
	out := FillDefaults(Clone(s.base))

	out["version"] = s.Version
	out["resources"] = fromFloatMap(s.Resources)
	out["stability"] = s.Stability
	out["corruption"] = s.Corruption

	exp := out["exploration"].(map[string]any)
	exp["discoveredLocations"] = fromStrings(s.Exploration.DiscoveredLocations)
	exp["explorationPoints"] = s.Exploration.ExplorationPoints
	exp["explorationHistory"] = cloneValue(nonNilList(s.Exploration.ExplorationHistory))

	dip := out["diplomacy"].(map[string]any)
	dip["relations"] = fromFloatMap(s.Diplomacy.Relations)
	dip["treaties"] = fromStrings(s.Diplomacy.Treaties)
	dip["envoys"] = s.Diplomacy.Envoys

	out["achievements"] = fromStrings(s.Achievements)
	return out
}

// Clone returns an independent copy of the draft, suitable as a read-only
// snapshot or a rollback point.
func (s *State) Clone() *State {
	return FromBlob(s.Blob())
}

// Field returns an open field that the typed draft does not model.
func (s *State) Field(key string) (any, bool) {
	if isKnownField(key) {
		return nil, false
	}
	v, ok := s.base[key]
	return cloneValue(v), ok
}

// SetField stores an open field. Known fields are ignored.
func (s *State) SetField(key string, v any) {
	if isKnownField(key) {
		return
	}
	if s.base == nil {
		s.base = Blob{}
	}
	s.base[key] = v
}

// HasAchievement reports whether id is already unlocked.
func (s *State) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// ResourceNames returns the resource keys in sorted order.
func (s *State) ResourceNames() []string {
	names := make([]string, 0, len(s.Resources))
	for k := range s.Resources {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func isKnownField(key string) bool {
	switch key {
	case "version", "resources", "stability", "corruption", "exploration", "diplomacy", "achievements":
		return true
	}
	return false
}

func toFloatMap(v any) map[string]float64 {
	m, _ := v.(map[string]any)
	out := make(map[string]float64, len(m))
	for k, val := range m {
		out[k] = numberOr(val, 0)
	}
	return out
}

func fromFloatMap(m map[string]float64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func toStrings(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func fromStrings(list []string) []any {
	out := make([]any, 0, len(list))
	for _, s := range list {
		out = append(out, s)
	}
	return out
}

func nonNilList(list []any) []any {
	if list == nil {
		return []any{}
	}
	return list
}
