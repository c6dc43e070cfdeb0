// Package queue provides fixed-capacity lock-free ring buffers for moving
// market ticks and events between threads: an SPSC ring for the
// single-feeder/single-drainer path and an MPSC ring for fan-in.
// Both are bounded, never block, and never allocate after construction.
package queue

import (
	"errors"
	"sync/atomic"
)

var ErrCapacity = errors.New("queue: capacity must be a power of two >= 2")

// SPSC is a single-producer single-consumer ring buffer.
//
// Exactly one goroutine may call Push and exactly one may call Pop/Peek.
// The producer owns head, the consumer owns tail; each index is published
// with a release store and observed with an acquire load, so a consumer
// that sees a new head also sees the fully written element. One slot is
// sacrificed to distinguish full from empty, so usable capacity is C-1.
type SPSC[T any] struct {
	head atomic.Uint64
	_    [56]byte // keep head and tail on separate cache lines
	tail atomic.Uint64
	_    [56]byte

	buf  []T
	mask uint64
}

// NewSPSC allocates a ring of the given capacity, which must be a power of
// two of at least 2. Usable capacity is capacity-1.
func NewSPSC[T any](capacity uint64) (*SPSC[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, ErrCapacity
	}
	return &SPSC[T]{buf: make([]T, capacity), mask: capacity - 1}, nil
}

// Push appends v to the ring. Returns false without blocking if the ring is
// full; unread data is never overwritten. Producer goroutine only.
func (q *SPSC[T]) Push(v T) bool {
	head := q.head.Load()
	next := (head + 1) & q.mask
	if next == q.tail.Load() {
		return false // full
	}
	q.buf[head] = v
	q.head.Store(next)
	return true
}

// Pop removes and returns the oldest element. Returns the zero value and
// false if the ring is empty. Consumer goroutine only.
func (q *SPSC[T]) Pop() (T, bool) {
	tail := q.tail.Load()
	if tail == q.head.Load() {
		var zero T
		return zero, false // empty
	}
	v := q.buf[tail]
	q.tail.Store((tail + 1) & q.mask)
	return v, true
}

// Peek returns the oldest element without removing it. Consumer goroutine only.
func (q *SPSC[T]) Peek() (T, bool) {
	tail := q.tail.Load()
	if tail == q.head.Load() {
		var zero T
		return zero, false
	}
	return q.buf[tail], true
}

// Len returns the number of buffered elements.
func (q *SPSC[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	return int((head - tail) & q.mask)
}

// Empty reports whether the ring holds no elements.
func (q *SPSC[T]) Empty() bool {
	return q.head.Load() == q.tail.Load()
}

// Cap returns the usable capacity (one slot below the allocated size).
func (q *SPSC[T]) Cap() uint64 {
	return uint64(len(q.buf)) - 1
}
