// Package brk wraps the kernel program-break primitive. It is the only
// package in this module allowed to move the process break; everything
// above it (pkg/allocator) only ever asks for more bytes through Sbrk.
package brk

import (
	"errors"
	"sync"
)

// ErrUnsupported is returned by a Source when the host OS has no brk
// syscall (e.g. darwin, where brk/sbrk were retired long ago).
var ErrUnsupported = errors.New("brk: not supported on this platform")

// ErrRejected is returned when the kernel refuses to grow the break to
// the requested address.
var ErrRejected = errors.New("brk: kernel rejected break request")

// Source is the raw, unbuffered break primitive a Break builds on.
// A real Source issues the actual syscall; a fake Source backs tests
// with a plain Go byte slice so they never touch the process break.
type Source interface {
	// RawBrk asks the kernel to set the break to addr and returns the
	// resulting break. addr == 0 means "query current break".
	RawBrk(addr uintptr) (uintptr, error)
}

// Break caches the process-wide current break address and serialises
// access to it. There is exactly one Break per heap.
type Break struct {
	mu      sync.Mutex
	src     Source
	current uintptr
	inited  bool
}

// New wraps src with cached-break bookkeeping: the current break address
// is tracked in memory instead of re-querying the kernel on every call.
func New(src Source) *Break {
	return &Break{src: src}
}

// Brk requests the kernel set the break to addr and returns the
// resulting break. Brk(0) queries the current break without moving it.
// If the kernel refuses (resulting break < addr), ErrRejected is
// returned, but the cached break is still updated to whatever the
// kernel actually returned.
func (b *Break) Brk(addr uintptr) (uintptr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.brkLocked(addr)
}

func (b *Break) brkLocked(addr uintptr) (uintptr, error) {
	got, err := b.src.RawBrk(addr)
	if err != nil {
		return 0, err
	}
	b.current = got
	b.inited = true
	if addr != 0 && got < addr {
		return got, ErrRejected
	}
	return got, nil
}

// Sbrk returns the break before growing it by delta, then grows it.
// On first call it initialises the cache via Brk(0). delta == 0 returns
// the current break unchanged.
func (b *Break) Sbrk(delta uintptr) (uintptr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inited {
		if _, err := b.brkLocked(0); err != nil {
			return 0, err
		}
	}

	before := b.current
	if delta == 0 {
		return before, nil
	}

	if _, err := b.brkLocked(before + delta); err != nil {
		return 0, err
	}
	return before, nil
}
