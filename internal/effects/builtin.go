package effects

import (
	"fmt"
	"math"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/state"
)

// RegisterBuiltins installs the resources, stability and corruption handlers.
func RegisterBuiltins(p *Pipeline) {
	_ = p.Register(KindAddResources, addResources)
	_ = p.Register(KindAddStability, addStability)
	_ = p.Register(KindAddCorruption, addCorruption)
}

func addResources(ctx *Context, e Effect) error {
	eff, ok := e.(AddResources)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidPayload, e)
	}
	if len(eff.Amounts) == 0 {
		return nil
	}

	deltas := make(map[string]float64, len(eff.Amounts))
	totals := make(map[string]float64, len(eff.Amounts))
	ctx.Mutate(func(s *state.State) {
		if s.Resources == nil {
			s.Resources = make(map[string]float64)
		}
		for name, amount := range eff.Amounts {
			before := s.Resources[name]
			after := math.Max(0, before+amount)
			s.Resources[name] = after
			deltas[name] = after - before
			totals[name] = after
		}
	})
	return ctx.emit(bus.ResourcesChanged{Deltas: deltas, Totals: totals})
}

func addStability(ctx *Context, e Effect) error {
	eff, ok := e.(AddStability)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidPayload, e)
	}
	var value float64
	ctx.Mutate(func(s *state.State) {
		s.Stability += eff.Amount
		value = s.Stability
	})
	return ctx.emit(bus.StabilityChanged{Delta: eff.Amount, Value: value})
}

func addCorruption(ctx *Context, e Effect) error {
	eff, ok := e.(AddCorruption)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidPayload, e)
	}
	var delta, value float64
	ctx.Mutate(func(s *state.State) {
		before := s.Corruption
		s.Corruption = math.Max(0, before+eff.Amount)
		delta = s.Corruption - before
		value = s.Corruption
	})
	return ctx.emit(bus.CorruptionChanged{Delta: delta, Value: value})
}
