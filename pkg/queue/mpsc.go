package queue

import "sync/atomic"

// mpscSlot carries a per-slot sequence number used as a publication ticket.
// On lap k the slot is free for the producer whose head equals seq, and
// readable by the consumer once seq reaches head+1.
type mpscSlot[T any] struct {
	seq  atomic.Uint64
	data T
}

// MPSC is a multi-producer single-consumer ring buffer.
//
// Producers reserve a slot by CAS on the shared head counter, write their
// payload, then publish by advancing the slot's sequence to head+1. The
// single consumer claims a slot only when its sequence equals tail+1 and
// frees it for the next lap by storing tail+capacity. Each pushed element
// is consumed exactly once, in slot-claim order.
type MPSC[T any] struct {
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64 // consumer-owned; atomic for Len/Empty snapshots
	_    [56]byte

	slots []mpscSlot[T]
	mask  uint64
}

// NewMPSC allocates a ring of the given capacity, which must be a power of
// two of at least 2. Unlike the SPSC ring, all capacity slots are usable:
// the sequence tickets disambiguate full from empty.
func NewMPSC[T any](capacity uint64) (*MPSC[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, ErrCapacity
	}
	q := &MPSC[T]{slots: make([]mpscSlot[T], capacity), mask: capacity - 1}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q, nil
}

// Push appends v to the ring. Safe for any number of concurrent producers.
// Returns false without blocking if the ring is full. Retries are bounded
// by contention: a producer loops only while losing CAS races to faster
// producers, never while waiting on the consumer.
func (q *MPSC[T]) Push(v T) bool {
	head := q.head.Load()
	for {
		slot := &q.slots[head&q.mask]
		seq := slot.seq.Load()
		diff := int64(seq) - int64(head)

		switch {
		case diff == 0:
			// Slot is free for this turn; try to claim it.
			if q.head.CompareAndSwap(head, head+1) {
				slot.data = v
				slot.seq.Store(head + 1)
				return true
			}
			head = q.head.Load()
		case diff < 0:
			// Slot still holds an element from a full lap ago.
			return false
		default:
			// Another producer claimed this slot; reload and retry.
			head = q.head.Load()
		}
	}
}

// Pop removes and returns the oldest published element. Returns the zero
// value and false if nothing is ready. Consumer goroutine only.
func (q *MPSC[T]) Pop() (T, bool) {
	tail := q.tail.Load()
	slot := &q.slots[tail&q.mask]
	seq := slot.seq.Load()
	if int64(seq)-int64(tail+1) != 0 {
		var zero T
		return zero, false
	}
	v := slot.data
	slot.seq.Store(tail + uint64(len(q.slots)))
	q.tail.Store(tail + 1)
	return v, true
}

// Len returns a snapshot of the number of reserved-but-unconsumed slots.
func (q *MPSC[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Empty reports whether no elements are waiting.
func (q *MPSC[T]) Empty() bool {
	return q.head.Load() == q.tail.Load()
}

// Cap returns the total capacity.
func (q *MPSC[T]) Cap() uint64 {
	return uint64(len(q.slots))
}
