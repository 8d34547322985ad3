package brk

import (
	"fmt"
	"unsafe"
)

// FakeSource backs tests with a plain Go byte slice standing in for the
// process break, so allocator/queue tests never touch the real
// break and can run deterministically and in parallel.
type FakeSource struct {
	arena []byte
	used  uintptr
	base  uintptr
}

// NewFakeSource allocates an arena of size bytes to serve as the fake
// heap. size should comfortably exceed anything a test will ask for;
// RawBrk returns ErrRejected once the arena is exhausted, exactly like
// a real kernel refusing to grow the break.
func NewFakeSource(size int) *FakeSource {
	arena := make([]byte, size)
	return &FakeSource{
		arena: arena,
		base:  uintptr(unsafe.Pointer(&arena[0])),
	}
}

func (f *FakeSource) RawBrk(addr uintptr) (uintptr, error) {
	if addr == 0 {
		return f.base + f.used, nil
	}
	if addr < f.base {
		return f.base + f.used, nil
	}
	want := addr - f.base
	if want > uintptr(len(f.arena)) {
		return f.base + f.used, fmt.Errorf("fake break: arena exhausted (want %d, have %d): %w", want, len(f.arena), ErrRejected)
	}
	f.used = want
	return addr, nil
}
