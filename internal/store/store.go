// Package store wraps a running state machine in a reactive store: the
// latest snapshot can be polled at any time, and derived views of the
// machine's context are delivered to subscribers only when they change.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/buildtall-systems/orderflow/internal/actor"
)

// ErrUnknownField indicates a field name that was not registered with the store.
var ErrUnknownField = errors.New("unknown context field")

// Machine is the runtime a Store drives.
type Machine[S comparable, C any, E any] interface {
	Start()
	Stop()
	Send(event E)
	Subscribe(fn func(actor.Snapshot[S, C])) (unsubscribe func())
	Snapshot() actor.Snapshot[S, C]
}

// Accessor reads one named field of a context.
type Accessor[C any] interface {
	FieldName() string
	Value(c C) any
}

// Field is a typed accessor for one named context field.
type Field[C any, V any] struct {
	Name string
	Get  func(C) V
}

func (f Field[C, V]) FieldName() string { return f.Name }
func (f Field[C, V]) Value(c C) any     { return f.Get(c) }

// Record holds the values of several context fields, keyed by field name.
type Record map[string]any

// Option configures a Store.
type Option[C any] func(fields map[string]Accessor[C])

// WithFields registers fields for lookup by name in SelectMany.
func WithFields[C any](fields ...Accessor[C]) Option[C] {
	return func(m map[string]Accessor[C]) {
		for _, f := range fields {
			m[f.FieldName()] = f
		}
	}
}

// Store republishes a machine's snapshots. Before the first publish
// Snapshot returns the zero snapshot and subscriptions receive nothing.
type Store[S comparable, C any, E any] struct {
	machine Machine[S, C, E]
	state   *Subject[actor.Snapshot[S, C]]
	fields  map[string]Accessor[C]

	mu          sync.Mutex
	started     bool
	stopped     bool
	unsubscribe func()
}

// New wraps machine. The store owns the machine's lifecycle from here on.
func New[S comparable, C any, E any](machine Machine[S, C, E], opts ...Option[C]) *Store[S, C, E] {
	s := &Store[S, C, E]{
		machine: machine,
		state:   NewSubject[actor.Snapshot[S, C]](),
		fields:  make(map[string]Accessor[C]),
	}
	for _, opt := range opts {
		opt(s.fields)
	}
	s.unsubscribe = machine.Subscribe(s.state.Publish)
	return s
}

// Start publishes the machine's current snapshot and then starts the machine.
// The initial snapshot reaches subscribers before any snapshot produced by an
// event, even when another goroutine sends while Start runs. It has no effect
// on a store that was already started or stopped.
func (s *Store[S, C, E]) Start() {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	// The machine drops events until it is started, so nothing can be
	// published between this snapshot and Start.
	s.state.Publish(s.machine.Snapshot())
	s.machine.Start()
}

// Stop stops the machine. Existing subscriptions stay open but receive no
// further values. Calling Stop more than once is safe.
func (s *Store[S, C, E]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	s.machine.Stop()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Run starts the store, calls fn and stops the store when fn returns or panics.
func (s *Store[S, C, E]) Run(fn func(*Store[S, C, E]) error) error {
	s.Start()
	defer s.Stop()
	return fn(s)
}

// Send forwards event to the machine.
func (s *Store[S, C, E]) Send(event E) {
	s.machine.Send(event)
}

// Snapshot returns the latest published snapshot, or the zero snapshot
// before the store has been started.
func (s *Store[S, C, E]) Snapshot() actor.Snapshot[S, C] {
	snap, _ := s.state.Value()
	return snap
}

// Ready reports whether a snapshot has been published.
func (s *Store[S, C, E]) Ready() bool {
	_, ok := s.state.Value()
	return ok
}

// State returns the state discriminant of the latest snapshot.
func (s *Store[S, C, E]) State() S {
	return s.Snapshot().Value
}

// Snapshots streams every published snapshot, replaying the latest one first.
func (s *Store[S, C, E]) Snapshots() Observable[actor.Snapshot[S, C]] {
	return s.state.Observable()
}

// Context streams the whole context, one value per published snapshot.
func (s *Store[S, C, E]) Context() Observable[C] {
	return Map(s.Snapshots(), func(snap actor.Snapshot[S, C]) C { return snap.Context })
}

// Select streams fn applied to the context, skipping values that are Same
// as the previous one.
func Select[S comparable, C any, E any, R any](s *Store[S, C, E], fn func(C) R) Observable[R] {
	return SelectFunc(s, fn, Same[R])
}

// SelectFunc is Select with a caller-supplied equality.
func SelectFunc[S comparable, C any, E any, R any](s *Store[S, C, E], fn func(C) R, equal func(a, b R) bool) Observable[R] {
	return DistinctUntilChanged(Map(s.Context(), fn), equal)
}

// SelectField streams a single context field.
func SelectField[S comparable, C any, E any, V any](s *Store[S, C, E], field Field[C, V]) Observable[V] {
	return Select(s, field.Get)
}

// SelectMany streams records holding the named fields. A record is emitted
// whenever at least one of the fields changed, and always carries all of them.
func SelectMany[S comparable, C any, E any](s *Store[S, C, E], names ...string) (Observable[Record], error) {
	accessors := make([]Accessor[C], 0, len(names))
	for _, name := range names {
		f, ok := s.fields[name]
		if !ok {
			return Observable[Record]{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		accessors = append(accessors, f)
	}

	project := func(c C) Record {
		r := make(Record, len(accessors))
		for _, f := range accessors {
			r[f.FieldName()] = f.Value(c)
		}
		return r
	}
	equal := func(prev, curr Record) bool {
		for _, name := range names {
			if !Same(prev[name], curr[name]) {
				return false
			}
		}
		return true
	}
	return SelectFunc(s, project, equal), nil
}
