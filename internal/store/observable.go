package store

import "sync"

// Observable is a lazy stream of values. Nothing happens until Subscribe,
// and every subscription runs its own pipeline.
type Observable[T any] struct {
	subscribe func(func(T)) *Subscription
}

// Subscribe calls fn for each value until the subscription is cancelled.
func (o Observable[T]) Subscribe(fn func(T)) *Subscription {
	if o.subscribe == nil {
		return newSubscription(nil)
	}
	var (
		mu     sync.Mutex
		closed bool
	)
	inner := o.subscribe(func(v T) {
		mu.Lock()
		done := closed
		mu.Unlock()
		if !done {
			fn(v)
		}
	})
	return newSubscription(func() {
		mu.Lock()
		closed = true
		mu.Unlock()
		inner.Unsubscribe()
	})
}

// Map projects every value of o through fn.
func Map[T, R any](o Observable[T], fn func(T) R) Observable[R] {
	return Observable[R]{subscribe: func(next func(R)) *Subscription {
		return o.Subscribe(func(v T) { next(fn(v)) })
	}}
}

// DistinctUntilChanged drops values equal to the previously forwarded one.
func DistinctUntilChanged[T any](o Observable[T], equal func(a, b T) bool) Observable[T] {
	return Observable[T]{subscribe: func(next func(T)) *Subscription {
		var (
			mu   sync.Mutex
			last T
			has  bool
		)
		return o.Subscribe(func(v T) {
			mu.Lock()
			if has && equal(last, v) {
				mu.Unlock()
				return
			}
			last, has = v, true
			mu.Unlock()
			next(v)
		})
	}}
}
