// Package mem provides fixed-footprint allocators for the execution core:
// a lock-free object pool with generation-checked handles and a single-owner
// bump arena. Both allocate all their memory up front so the hot path never
// touches the Go heap.
package mem

import (
	"errors"
	"sync/atomic"
)

var (
	ErrPoolSize    = errors.New("mem: pool size must be a power of two >= 2")
	ErrStaleRef    = errors.New("mem: ref does not match slot generation")
	ErrOutOfBounds = errors.New("mem: ref index out of range")
)

// Ref is a handle to a pooled object: a slot index plus the generation the
// slot had when allocated. A Ref outlives the object it points to only in
// the sense that Get and Free detect it as stale; the memory itself is never
// returned to the runtime.
type Ref struct {
	idx uint32
	gen uint32
}

// NilRef is the zero handle. Its generation can never match a live slot
// because slot generations start at 1.
var NilRef = Ref{}

// IsNil reports whether the handle was never allocated.
func (r Ref) IsNil() bool { return r.gen == 0 }

type poolSlot[T any] struct {
	gen  atomic.Uint32
	next atomic.Uint32 // free-list link, 1-based (0 = end of list)
	data T
}

// Pool is a fixed-capacity lock-free object pool.
//
// Free slots form a Treiber stack threaded through the slots themselves.
// The stack head packs a monotonically increasing tag into the high 32 bits
// and a 1-based slot index into the low 32, so a CAS that observes a recycled
// head value still fails (the tag has moved on). Generations catch use-after-
// free at the API level: every Free bumps the slot generation, invalidating
// all outstanding Refs to it.
type Pool[T any] struct {
	head      atomic.Uint64 // tag<<32 | idx+1
	_         [56]byte
	allocated atomic.Int64
	_         [56]byte

	slots []poolSlot[T]
}

// NewPool allocates a pool with the given number of slots, which must be a
// power of two of at least 2.
func NewPool[T any](size uint32) (*Pool[T], error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, ErrPoolSize
	}
	p := &Pool[T]{slots: make([]poolSlot[T], size)}
	for i := range p.slots {
		p.slots[i].gen.Store(1)
		if i+1 < len(p.slots) {
			p.slots[i].next.Store(uint32(i) + 2)
		}
	}
	p.head.Store(1) // slot 0, tag 0
	return p, nil
}

// Alloc pops a free slot and returns its handle and a pointer to the zeroed
// object. Returns false when the pool is exhausted; it never grows. Safe for
// concurrent callers.
func (p *Pool[T]) Alloc() (Ref, *T, bool) {
	for {
		head := p.head.Load()
		idx1 := uint32(head)
		if idx1 == 0 {
			return NilRef, nil, false
		}
		slot := &p.slots[idx1-1]
		next := slot.next.Load()
		tag := head >> 32
		if !p.head.CompareAndSwap(head, (tag+1)<<32|uint64(next)) {
			continue
		}
		var zero T
		slot.data = zero
		p.allocated.Add(1)
		return Ref{idx: idx1 - 1, gen: slot.gen.Load()}, &slot.data, true
	}
}

// Get resolves a handle to its object. Returns false if the handle is nil,
// out of range, or stale (the slot has been freed since).
func (p *Pool[T]) Get(r Ref) (*T, bool) {
	if r.IsNil() || int(r.idx) >= len(p.slots) {
		return nil, false
	}
	slot := &p.slots[r.idx]
	if slot.gen.Load() != r.gen {
		return nil, false
	}
	return &slot.data, true
}

// Free returns the slot behind r to the pool. The generation bump and the
// CAS that performs it make double-free of the same handle an error rather
// than a corruption: only one caller can move the generation forward.
func (p *Pool[T]) Free(r Ref) error {
	if r.IsNil() {
		return ErrStaleRef
	}
	if int(r.idx) >= len(p.slots) {
		return ErrOutOfBounds
	}
	slot := &p.slots[r.idx]
	if !slot.gen.CompareAndSwap(r.gen, r.gen+1) {
		return ErrStaleRef
	}
	for {
		head := p.head.Load()
		slot.next.Store(uint32(head))
		tag := head >> 32
		if p.head.CompareAndSwap(head, (tag+1)<<32|uint64(r.idx+1)) {
			p.allocated.Add(-1)
			return nil
		}
	}
}

// Allocated returns the number of live objects.
func (p *Pool[T]) Allocated() int {
	return int(p.allocated.Load())
}

// Available returns the number of free slots.
func (p *Pool[T]) Available() int {
	return len(p.slots) - p.Allocated()
}

// Cap returns the total slot count.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}
