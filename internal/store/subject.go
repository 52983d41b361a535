package store

import "sync"

// Subscription is a handle to one registered listener.
type Subscription struct {
	once    sync.Once
	release func()
}

func newSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Unsubscribe removes the listener. Calling it more than once is safe.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// Subject holds the latest published value and multicasts new values to its
// listeners. A listener added after the first Publish immediately receives
// the latest value.
//
// Listeners run outside the lock. Publish calls must be serialized by the
// caller (the actor's mailbox does this), and a Subscribe that races a
// Publish may see the replayed value after the newer one.
type Subject[T any] struct {
	mu        sync.Mutex
	value     T
	has       bool
	listeners map[uint64]func(T)
	order     []uint64
	nextID    uint64
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{listeners: make(map[uint64]func(T))}
}

// Publish stores v and then calls every current listener in subscription order.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	s.has = true
	listeners := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
}

// Value returns the latest value and whether anything was published yet.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

// Subscribe adds fn and replays the latest value to it, if any.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.order = append(s.order, id)
	v, has := s.value, s.has
	s.mu.Unlock()

	if has {
		fn(v)
	}
	return newSubscription(func() { s.remove(id) })
}

// Listeners returns the number of registered listeners.
func (s *Subject[T]) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Observable exposes the subject as a stream.
func (s *Subject[T]) Observable() Observable[T] {
	return Observable[T]{subscribe: s.Subscribe}
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[id]; !ok {
		return
	}
	delete(s.listeners, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}
