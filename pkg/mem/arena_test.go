package mem

import (
	"testing"
	"unsafe"
)

func TestNewArenaRejectsBadSize(t *testing.T) {
	if _, err := NewArena(0); err == nil {
		t.Error("size 0: expected error")
	}
	if _, err := NewArena(-1); err == nil {
		t.Error("negative size: expected error")
	}
	if _, err := NewArena(1024); err != nil {
		t.Fatalf("size 1024: unexpected error %v", err)
	}
}

func TestArenaAlignment(t *testing.T) {
	a, _ := NewArena(256)

	// Misalign the offset with a 1-byte alloc, then demand 8-byte alignment.
	if p := a.Alloc(1, 1); p == nil {
		t.Fatal("1-byte alloc failed")
	}
	p := a.Alloc(8, 8)
	if p == nil {
		t.Fatal("aligned alloc failed")
	}
	if uintptr(p)%8 != 0 {
		t.Errorf("pointer %p not 8-byte aligned", p)
	}
}

func TestArenaExhaustion(t *testing.T) {
	a, _ := NewArena(64)

	if p := a.Alloc(64, 1); p == nil {
		t.Fatal("full-size alloc failed")
	}
	if p := a.Alloc(1, 1); p != nil {
		t.Error("alloc succeeded on exhausted arena")
	}
	if a.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", a.Remaining())
	}

	a.Reset()
	if a.Used() != 0 {
		t.Errorf("used = %d after reset, want 0", a.Used())
	}
	if p := a.Alloc(64, 1); p == nil {
		t.Error("alloc failed after reset")
	}
}

func TestArenaAllocSlice(t *testing.T) {
	a, _ := NewArena(1024)

	s := AllocSlice[int64](a, 10)
	if len(s) != 10 {
		t.Fatalf("len = %d, want 10", len(s))
	}
	for i := range s {
		s[i] = int64(i * i)
	}
	for i := range s {
		if s[i] != int64(i*i) {
			t.Errorf("s[%d] = %d, want %d", i, s[i], i*i)
		}
	}
	if uintptr(unsafe.Pointer(&s[0]))%unsafe.Alignof(int64(0)) != 0 {
		t.Error("slice base not aligned for int64")
	}

	// Over-ask fails cleanly.
	if big := AllocSlice[int64](a, 1000); big != nil {
		t.Error("oversized slice alloc succeeded")
	}
	if bad := AllocSlice[int64](a, 0); bad != nil {
		t.Error("zero-length slice alloc returned non-nil")
	}
}

func TestArenaNew(t *testing.T) {
	type record struct {
		ID    uint64
		Price int64
	}
	a, _ := NewArena(int(unsafe.Sizeof(record{})) * 2)

	r1 := New[record](a)
	if r1 == nil {
		t.Fatal("first New failed")
	}
	if r1.ID != 0 || r1.Price != 0 {
		t.Error("New returned non-zeroed record")
	}
	r1.ID = 7

	r2 := New[record](a)
	if r2 == nil {
		t.Fatal("second New failed")
	}
	if r1 == r2 {
		t.Error("New returned the same address twice")
	}

	// Reset makes old memory reusable; New zeroes it again.
	a.Reset()
	r3 := New[record](a)
	if r3 == nil {
		t.Fatal("New after reset failed")
	}
	if r3.ID != 0 {
		t.Errorf("record not zeroed after reset reuse: ID=%d", r3.ID)
	}
}
