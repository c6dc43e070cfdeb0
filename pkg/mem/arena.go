package mem

import (
	"errors"
	"unsafe"
)

var ErrArenaSize = errors.New("mem: arena size must be positive")

// Arena is a single-owner bump allocator over one contiguous byte slice.
// Alloc hands out aligned chunks by advancing an offset; there is no
// per-object free, only Reset. Not safe for concurrent use: an arena belongs
// to exactly one goroutine at a time.
type Arena struct {
	buf    []byte
	offset uintptr
}

// NewArena allocates an arena backed by size bytes.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, ErrArenaSize
	}
	return &Arena{buf: make([]byte, size)}, nil
}

// Alloc returns a pointer to size bytes aligned to align, or nil when the
// arena cannot satisfy the request. align must be a power of two.
func (a *Arena) Alloc(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	base := uintptr(unsafe.Pointer(&a.buf[0]))
	aligned := (base + a.offset + align - 1) &^ (align - 1)
	end := aligned - base + size
	if end > uintptr(len(a.buf)) {
		return nil
	}
	a.offset = end
	return unsafe.Pointer(&a.buf[aligned-base])
}

// AllocSlice carves a []T of length n out of the arena, or returns nil when
// it does not fit. The slice aliases arena memory: it is valid until the
// next Reset and must not be retained past it.
func AllocSlice[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var t T
	p := a.Alloc(uintptr(n)*unsafe.Sizeof(t), unsafe.Alignof(t))
	if p == nil {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}

// New allocates a single zeroed T from the arena, or nil when exhausted.
func New[T any](a *Arena) *T {
	var t T
	p := a.Alloc(unsafe.Sizeof(t), unsafe.Alignof(t))
	if p == nil {
		return nil
	}
	ptr := (*T)(p)
	*ptr = t
	return ptr
}

// Reset rewinds the arena, invalidating everything allocated from it.
// The backing memory is not zeroed.
func (a *Arena) Reset() {
	a.offset = 0
}

// Used returns the number of bytes consumed, including alignment padding.
func (a *Arena) Used() int {
	return int(a.offset)
}

// Remaining returns the bytes still available before padding.
func (a *Arena) Remaining() int {
	return len(a.buf) - int(a.offset)
}

// Cap returns the total arena size in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}
