package session

import (
	"sync"
	"sync/atomic"
)

// Deferred holds a computation that runs the first time Force is called.
// Later calls return the stored result without recomputing.
type Deferred[T any] struct {
	once   sync.Once
	fn     func() (T, error)
	val    T
	err    error
	forced atomic.Bool
}

// Defer wraps fn so that it runs at most once
func Defer[T any](fn func() (T, error)) *Deferred[T] {
	return &Deferred[T]{fn: fn}
}

// Force runs the computation if it has not run yet and returns its result
func (d *Deferred[T]) Force() (T, error) {
	d.once.Do(func() {
		d.val, d.err = d.fn()
		d.fn = nil
		d.forced.Store(true)
	})
	return d.val, d.err
}

// Forced reports whether the computation has already run
func (d *Deferred[T]) Forced() bool {
	return d.forced.Load()
}
