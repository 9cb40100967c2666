package effects

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/idle-realm/internal/bus"
	"github.com/talgya/idle-realm/internal/state"
)

// Context is the capability bundle a caller supplies for one Run. The
// pipeline reaches the draft only through Mutate and keeps no reference to it
// after Run returns.
type Context struct {
	// Mutate runs fn against the caller's draft.
	Mutate func(fn func(*state.State))
	// Emit publishes a notification; nil disables notifications.
	Emit func(bus.Event) error
	// Can, when set, gates each effect by kind.
	Can func(Kind) bool
}

func (c *Context) emit(e bus.Event) error {
	if c.Emit == nil {
		return nil
	}
	return c.Emit(e)
}

// Handler applies one effect.
type Handler func(ctx *Context, e Effect) error

// Pipeline is a registry of handlers keyed by effect kind.
type Pipeline struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
}

// NewPipeline returns a pipeline with no handlers.
func NewPipeline() *Pipeline {
	return &Pipeline{handlers: make(map[Kind]Handler)}
}

// Default returns a pipeline with the built-in handlers installed.
func Default() *Pipeline {
	p := NewPipeline()
	RegisterBuiltins(p)
	return p
}

// Register associates kind with h. A later registration for the same kind
// replaces the earlier one.
func (p *Pipeline) Register(kind Kind, h Handler) error {
	if kind == "" {
		return ErrInvalidEffectKind
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidEffectKind, kind)
	}
	p.mu.Lock()
	p.handlers[kind] = h
	p.mu.Unlock()
	return nil
}

// Registered reports whether kind has a handler.
func (p *Pipeline) Registered(kind Kind) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.handlers[kind]
	return ok
}

// Run applies effects in order. Kinds without a handler are skipped. The
// first handler error stops the batch; effects applied before it stay
// applied.
func (p *Pipeline) Run(ctx *Context, effects []Effect) error {
	for i, e := range effects {
		if e == nil {
			continue
		}
		kind := e.Kind()

		p.mu.RLock()
		h, ok := p.handlers[kind]
		p.mu.RUnlock()
		if !ok {
			slog.Debug("skipping unregistered effect", "kind", kind)
			continue
		}
		if ctx.Can != nil && !ctx.Can(kind) {
			slog.Debug("effect not permitted", "kind", kind)
			continue
		}

		if err := h(ctx, e); err != nil {
			return fmt.Errorf("effect %d (%s): %w", i, kind, err)
		}
	}
	return nil
}
