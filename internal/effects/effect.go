// Package effects applies data-described effects to the simulation draft.
//
// Effects are ephemeral instructions: decoded from content, run once through
// a Pipeline, then discarded. Each kind is a concrete type; kinds this build
// does not know decode to Unknown and are skipped at run time.
package effects

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/talgya/idle-realm/internal/state"
)

// Kind is the dispatch key of an effect.
type Kind string

// Built-in kinds.
const (
	KindAddResources  Kind = "resources.add"
	KindAddStability  Kind = "stability.add"
	KindAddCorruption Kind = "corruption.add"
)

// Sentinel errors for effect registration and payloads.
var (
	ErrInvalidEffectKind = errors.New("invalid effect kind")
	ErrInvalidPayload    = errors.New("invalid effect payload")
)

// Effect is one of AddResources, AddStability, AddCorruption or Unknown.
type Effect interface {
	Kind() Kind
	isEffect()
}

// AddResources adds each amount to the named resource. Results clamp at zero.
type AddResources struct {
	Amounts map[string]float64
}

// AddStability shifts stability. Stability is unbounded.
type AddStability struct {
	Amount float64
}

// AddCorruption shifts corruption. Results clamp at zero.
type AddCorruption struct {
	Amount float64
}

// Unknown carries an effect of a kind this build has no type for. A handler
// registered under its kind still receives it.
type Unknown struct {
	Name    Kind
	Payload any
}

func (AddResources) Kind() Kind  { return KindAddResources }
func (AddStability) Kind() Kind  { return KindAddStability }
func (AddCorruption) Kind() Kind { return KindAddCorruption }
func (u Unknown) Kind() Kind     { return u.Name }

func (AddResources) isEffect()  {}
func (AddStability) isEffect()  {}
func (AddCorruption) isEffect() {}
func (Unknown) isEffect()       {}

// Spec is the data form of an effect as written in content files.
type Spec struct {
	Kind    string `json:"kind" yaml:"kind"`
	Payload any    `json:"payload" yaml:"payload"`
}

// Effect decodes s into its typed form. Kinds without a type,
// including an empty kind, decode to Unknown.
func (s Spec) Effect() (Effect, error) {
	switch Kind(s.Kind) {
	case KindAddResources:
		amounts, err := numberMap(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Kind, err)
		}
		return AddResources{Amounts: amounts}, nil
	case KindAddStability:
		n, err := amount(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Kind, err)
		}
		return AddStability{Amount: n}, nil
	case KindAddCorruption:
		n, err := amount(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Kind, err)
		}
		return AddCorruption{Amount: n}, nil
	default:
		return Unknown{Name: Kind(s.Kind), Payload: s.Payload}, nil
	}
}

// Decode turns specs into effects, failing on the first malformed spec.
func Decode(specs []Spec) ([]Effect, error) {
	out := make([]Effect, 0, len(specs))
	for i, s := range specs {
		e, err := s.Effect()
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// DecodeJSON decodes a JSON array of {kind, payload} objects.
func DecodeJSON(raw []byte) ([]Effect, error) {
	var specs []Spec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("decode effects: %w", err)
	}
	return Decode(specs)
}

// ToSpec is the inverse of Spec.Effect.
func ToSpec(e Effect) Spec {
	switch t := e.(type) {
	case AddResources:
		payload := make(map[string]any, len(t.Amounts))
		for k, v := range t.Amounts {
			payload[k] = v
		}
		return Spec{Kind: string(KindAddResources), Payload: payload}
	case AddStability:
		return Spec{Kind: string(KindAddStability), Payload: t.Amount}
	case AddCorruption:
		return Spec{Kind: string(KindAddCorruption), Payload: t.Amount}
	case Unknown:
		return Spec{Kind: string(t.Name), Payload: t.Payload}
	}
	return Spec{Kind: string(e.Kind())}
}

// amount reads a scalar payload, or {"amount": n}.
func amount(payload any) (float64, error) {
	if m, ok := payload.(map[string]any); ok {
		payload = m["amount"]
	}
	n, ok := state.Number(payload)
	if !ok {
		return 0, fmt.Errorf("%w: %v is not a number", ErrInvalidPayload, payload)
	}
	return n, nil
}

func numberMap(payload any) (map[string]float64, error) {
	out := make(map[string]float64)
	switch m := payload.(type) {
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n, ok := state.Number(m[k])
			if !ok {
				return nil, fmt.Errorf("%w: %s=%v is not a number", ErrInvalidPayload, k, m[k])
			}
			out[k] = n
		}
	case map[string]float64:
		for k, v := range m {
			out[k] = v
		}
	default:
		return nil, fmt.Errorf("%w: expected resource bundle, got %T", ErrInvalidPayload, payload)
	}
	return out, nil
}
