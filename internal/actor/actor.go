package actor

import (
	"context"
	"sync"
)

// Snapshot is the state discriminant and context published after a transition.
type Snapshot[S comparable, C any] struct {
	Value   S
	Context C
}

// TransitionFunc computes the next snapshot for an event. accepted is false
// when the event was absorbed and nothing changed.
type TransitionFunc[S comparable, C any, E any] func(ctx context.Context, state S, c C, event E) (next S, nextCtx C, accepted bool)

// Actor runs a state machine: it holds the current snapshot, applies events
// in arrival order and notifies subscribers after each accepted transition.
//
// Events sent while a transition is being delivered, including from inside a
// subscriber, are queued and processed once delivery finishes.
type Actor[S comparable, C any, E any] struct {
	transition TransitionFunc[S, C, E]

	mu        sync.Mutex
	snapshot  Snapshot[S, C]
	running   bool
	stopped   bool
	draining  bool
	mailbox   []E
	listeners map[uint64]func(Snapshot[S, C])
	order     []uint64
	nextID    uint64
}

// New returns an actor seeded with initial. It does nothing until Start.
func New[S comparable, C any, E any](initial Snapshot[S, C], transition TransitionFunc[S, C, E]) *Actor[S, C, E] {
	return &Actor[S, C, E]{
		transition: transition,
		snapshot:   initial,
		listeners:  make(map[uint64]func(Snapshot[S, C])),
	}
}

// Start begins accepting events. Starting a stopped actor has no effect.
func (a *Actor[S, C, E]) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.running = true
}

// Stop halts the actor. Queued events are dropped and later sends are ignored.
// Subscribers stay registered but receive nothing further.
func (a *Actor[S, C, E]) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	a.stopped = true
	a.mailbox = nil
}

// Running reports whether the actor accepts events.
func (a *Actor[S, C, E]) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Snapshot returns the current snapshot.
func (a *Actor[S, C, E]) Snapshot() Snapshot[S, C] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// Subscribe registers fn for snapshots published after accepted transitions.
// Listeners are called in subscription order. The returned func removes fn.
func (a *Actor[S, C, E]) Subscribe(fn func(Snapshot[S, C])) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.listeners[id] = fn
	a.order = append(a.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			delete(a.listeners, id)
			for i, v := range a.order {
				if v == id {
					a.order = append(a.order[:i:i], a.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Send delivers event. When no other send is in progress, the transition and
// subscriber notification complete before Send returns.
func (a *Actor[S, C, E]) Send(event E) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.mailbox = append(a.mailbox, event)
	if a.draining {
		a.mu.Unlock()
		return
	}
	a.draining = true
	a.mu.Unlock()

	a.drain()
}

func (a *Actor[S, C, E]) drain() {
	for {
		a.mu.Lock()
		if len(a.mailbox) == 0 || !a.running {
			a.draining = false
			a.mailbox = nil
			a.mu.Unlock()
			return
		}
		event := a.mailbox[0]
		a.mailbox = a.mailbox[1:]

		next, nextCtx, accepted := a.transition(context.Background(), a.snapshot.Value, a.snapshot.Context, event)
		if !accepted {
			a.mu.Unlock()
			continue
		}
		a.snapshot = Snapshot[S, C]{Value: next, Context: nextCtx}
		snap := a.snapshot
		listeners := make([]func(Snapshot[S, C]), 0, len(a.order))
		for _, id := range a.order {
			listeners = append(listeners, a.listeners[id])
		}
		a.mu.Unlock()

		for _, fn := range listeners {
			fn(snap)
		}
	}
}
