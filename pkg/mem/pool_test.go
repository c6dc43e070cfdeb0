package mem

import (
	"sync"
	"testing"
)

func TestNewPoolRejectsBadSize(t *testing.T) {
	for _, s := range []uint32{0, 1, 3, 100} {
		if _, err := NewPool[int](s); err == nil {
			t.Errorf("size %d: expected error, got nil", s)
		}
	}
	if _, err := NewPool[int](16); err != nil {
		t.Fatalf("size 16: unexpected error %v", err)
	}
}

func TestPoolExhaustion(t *testing.T) {
	p, _ := NewPool[int](4)

	refs := make([]Ref, 0, 4)
	for i := 0; i < 4; i++ {
		ref, obj, ok := p.Alloc()
		if !ok {
			t.Fatalf("alloc %d failed with %d allocated", i, p.Allocated())
		}
		if *obj != 0 {
			t.Errorf("alloc %d returned non-zeroed object %d", i, *obj)
		}
		*obj = i + 1
		refs = append(refs, ref)
	}

	if _, _, ok := p.Alloc(); ok {
		t.Error("alloc succeeded on exhausted pool")
	}
	if p.Allocated() != 4 || p.Available() != 0 {
		t.Errorf("allocated=%d available=%d, want 4/0", p.Allocated(), p.Available())
	}

	// Freeing one slot makes exactly one alloc possible again.
	if err := p.Free(refs[1]); err != nil {
		t.Fatalf("free: %v", err)
	}
	if _, _, ok := p.Alloc(); !ok {
		t.Error("alloc failed after free")
	}
	if _, _, ok := p.Alloc(); ok {
		t.Error("second alloc succeeded after one free")
	}
}

func TestPoolGetAndStaleRef(t *testing.T) {
	p, _ := NewPool[string](8)

	ref, obj, _ := p.Alloc()
	*obj = "alive"

	got, ok := p.Get(ref)
	if !ok || *got != "alive" {
		t.Fatalf("get = (%v, %v), want (alive, true)", got, ok)
	}

	if err := p.Free(ref); err != nil {
		t.Fatalf("free: %v", err)
	}

	// The handle is dead once freed.
	if _, ok := p.Get(ref); ok {
		t.Error("get succeeded on freed ref")
	}

	// Even if the slot is reallocated, the old handle stays dead.
	ref2, _, _ := p.Alloc()
	if _, ok := p.Get(ref); ok {
		t.Error("old ref resolved after slot reuse")
	}
	if _, ok := p.Get(ref2); !ok {
		t.Error("fresh ref failed to resolve")
	}
}

func TestPoolDoubleFree(t *testing.T) {
	p, _ := NewPool[int](4)

	ref, _, _ := p.Alloc()
	if err := p.Free(ref); err != nil {
		t.Fatalf("first free: %v", err)
	}
	if err := p.Free(ref); err != ErrStaleRef {
		t.Errorf("second free = %v, want ErrStaleRef", err)
	}
	if err := p.Free(NilRef); err != ErrStaleRef {
		t.Errorf("free(NilRef) = %v, want ErrStaleRef", err)
	}
	if p.Allocated() != 0 {
		t.Errorf("allocated = %d after free, want 0", p.Allocated())
	}
}

func TestPoolNilAndBoundsRefs(t *testing.T) {
	p, _ := NewPool[int](4)

	if _, ok := p.Get(NilRef); ok {
		t.Error("get(NilRef) succeeded")
	}
	if _, ok := p.Get(Ref{idx: 99, gen: 1}); ok {
		t.Error("get with out-of-range index succeeded")
	}
	if err := p.Free(Ref{idx: 99, gen: 1}); err != ErrOutOfBounds {
		t.Errorf("free out-of-range = %v, want ErrOutOfBounds", err)
	}
}

func TestPoolConcurrent(t *testing.T) {
	const (
		workers = 8
		rounds  = 5_000
	)
	p, _ := NewPool[uint64](64)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				ref, obj, ok := p.Alloc()
				if !ok {
					continue // pool contended, fine
				}
				want := uint64(w)<<32 | uint64(i)
				*obj = want
				got, ok := p.Get(ref)
				if !ok {
					t.Errorf("live ref failed to resolve")
					return
				}
				if *got != want {
					t.Errorf("slot corrupted: got %x, want %x", *got, want)
					return
				}
				if err := p.Free(ref); err != nil {
					t.Errorf("free live ref: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if p.Allocated() != 0 {
		t.Errorf("allocated = %d after all frees, want 0", p.Allocated())
	}
	// Every slot must still be reachable through the free list.
	for i := 0; i < p.Cap(); i++ {
		if _, _, ok := p.Alloc(); !ok {
			t.Fatalf("free list lost slots: alloc %d failed", i)
		}
	}
}

func BenchmarkPoolAllocFree(b *testing.B) {
	p, _ := NewPool[[64]byte](1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ref, _, _ := p.Alloc()
		p.Free(ref)
	}
}
