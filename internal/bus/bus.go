// Package bus is the in-process publish/subscribe channel that decouples the
// simulation from its observers. Dispatch is synchronous and runs against a
// snapshot of the handler list, so handlers may subscribe, unsubscribe or
// emit while an emission is in flight.
package bus

import "sync"

// Bus routes events to the handlers registered for their type.
type Bus struct {
	mu       sync.Mutex
	handlers map[EventType][]*Subscription
	nextID   uint64
}

// Subscription is a registered handler. Unsubscribe is the only way for a
// subscriber to remove itself.
type Subscription struct {
	bus  *Bus
	typ  EventType
	id   uint64
	call func(Event) error
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[EventType][]*Subscription)}
}

// Subscribe registers handler for events of type E. E must be a concrete
// event type such as ResourcesChanged; an interface type panics because its
// zero value carries no EventType.
func Subscribe[E Event](b *Bus, handler func(E) error) *Subscription {
	var zero E
	if any(zero) == nil {
		panic("bus: Subscribe needs a concrete event type")
	}
	sub := &Subscription{
		bus: b,
		typ: zero.EventType(),
		call: func(e Event) error {
			typed, ok := e.(E)
			if !ok {
				return nil
			}
			return handler(typed)
		},
	}

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.handlers[sub.typ] = append(b.handlers[sub.typ], sub)
	b.mu.Unlock()
	return sub
}

// On registers handler and returns its unsubscribe function.
func On[E Event](b *Bus, handler func(E) error) (unsubscribe func()) {
	return Subscribe(b, handler).Unsubscribe
}

// Type reports the event type the subscription listens to.
func (s *Subscription) Type() EventType { return s.typ }

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.Off(s)
}

// Off removes sub from its event type's handler list. An emission already in
// progress still delivers to it.
func (b *Bus) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.handlers[sub.typ]
	for i, s := range list {
		if s.id != sub.id {
			continue
		}
		next := make([]*Subscription, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, sub.typ)
		} else {
			b.handlers[sub.typ] = next
		}
		return
	}
}

// Emit delivers e to every handler registered for its type, in registration
// order. The first handler error stops delivery and is returned. A nil event
// is ignored.
func (b *Bus) Emit(e Event) error {
	if e == nil {
		return nil
	}
	b.mu.Lock()
	live := b.handlers[e.EventType()]
	if len(live) == 0 {
		b.mu.Unlock()
		return nil
	}
	snapshot := make([]*Subscription, len(live))
	copy(snapshot, live)
	b.mu.Unlock()

	for _, sub := range snapshot {
		if err := sub.call(e); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll drops every subscription.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	b.handlers = make(map[EventType][]*Subscription)
	b.mu.Unlock()
}

// Len returns the number of handlers registered for t.
func (b *Bus) Len(t EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[t])
}
