// Package allocator implements the global malloc/free engine on top of
// pkg/block's header model and pkg/brk's break adapter: a single
// process-wide free list, first-fit or best-fit search, in-place
// splitting on allocation, and boundary coalescing on free.
package allocator

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"blockheap/pkg/block"
	"blockheap/pkg/brk"
)

// ErrInvalidArgument covers the caller-facing misuse cases for this
// allocator: a zero-size Malloc, or a Free of a nil pointer.
var ErrInvalidArgument = errors.New("allocator: invalid argument")

// Strategy selects how Malloc searches the free list. It is fixed at
// construction; Malloc still switches on it once per call to pick the
// search routine.
type Strategy int

const (
	// FirstFit returns the first free block large enough for the request.
	FirstFit Strategy = iota
	// BestFit returns the smallest free block large enough for the request.
	BestFit
)

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return "FIRST_FIT"
	case BestFit:
		return "BEST_FIT"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy accepts the demo driver's command-line spelling, falling
// back to FirstFit for anything it doesn't recognise.
func ParseStrategy(s string) Strategy {
	if s == "BEST_FIT" {
		return BestFit
	}
	return FirstFit
}

// Allocator is one heap: one break, one free list, one lock. In the
// common case it's a genuine process-wide singleton; New stays exported
// so tests (and anything that wants an isolated heap) can construct one
// against a fake brk.Source.
type Allocator struct {
	mu       sync.Mutex
	brk      *brk.Break
	strategy Strategy
	root     block.Addr
}

// New constructs an allocator over src with the given search strategy.
// The heap is not grown until the first Malloc call (lazy init).
func New(strategy Strategy, src brk.Source) *Allocator {
	return &Allocator{brk: brk.New(src), strategy: strategy}
}

var (
	defaultOnce sync.Once
	defaultAlc  *Allocator
)

// Default returns the package-wide allocator backed by the real OS
// break, constructed lazily with strategy on first use. Subsequent
// calls ignore strategy and return the same instance — there is only
// one process break, so there can only be one default heap.
func Default(strategy Strategy) *Allocator {
	defaultOnce.Do(func() {
		defaultAlc = New(strategy, brkSource())
	})
	return defaultAlc
}

// Malloc requests size bytes of payload and returns a pointer to the
// start of the data region, or an error. size must be positive.
func (a *Allocator) Malloc(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: malloc size must be > 0, got %d", ErrInvalidArgument, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.root == 0 {
		if err := a.init(); err != nil {
			return nil, err
		}
	}

	aligned := block.Align(uintptr(size))
	total := block.Size + aligned

	fit, found, last, err := a.searchFreeSpotOrLast(total)
	if err != nil {
		return nil, err
	}

	if found {
		b := block.Split(fit, aligned)
		return block.Data(b), nil
	}

	cur, err := a.brk.Sbrk(0)
	if err != nil {
		return nil, err
	}
	if _, err := a.brk.Sbrk(total); err != nil {
		return nil, err
	}

	newBlock := block.Addr(cur)
	block.InitHeader(newBlock, aligned, last, 0)
	block.SetNext(last, newBlock)

	return block.Data(newBlock), nil
}

// Free releases a pointer previously returned by Malloc, coalescing it
// with any free neighbour. Passing a pointer this allocator did not
// return is undefined behaviour — it is not validated.
func (a *Allocator) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return fmt.Errorf("%w: free of nil pointer", ErrInvalidArgument)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b := block.FromData(ptr)
	block.SetFree(b, true)
	block.Coalesce(b)
	return nil
}

// HeapSize reports the number of bytes currently between the heap's
// root sentinel and the process break. This allocator never shrinks
// the break, so this value only ever grows, making it double as the
// heap's high-water mark for pkg/stats.
func (a *Allocator) HeapSize() (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.root == 0 {
		return 0, nil
	}
	cur, err := a.brk.Sbrk(0)
	if err != nil {
		return 0, err
	}
	return uint64(cur - uintptr(a.root)), nil
}

// init lazily creates the root sentinel block: a zero-data-size,
// occupied header marking the start of the heap. The initial break is
// asserted word-aligned rather than assumed.
func (a *Allocator) init() error {
	b0, err := a.brk.Sbrk(0)
	if err != nil {
		return err
	}
	if b0%block.Word != 0 {
		return fmt.Errorf("allocator: initial break 0x%x is not word-aligned", b0)
	}
	if _, err := a.brk.Sbrk(block.Size); err != nil {
		return err
	}

	a.root = block.Addr(b0)
	block.InitHeader(a.root, 0, 0, 0)
	return nil
}

// searchFreeSpotOrLast walks the list starting at root.next. If a fit
// is found, it returns (block, true, _, nil). Otherwise it returns the
// last block in the list and false, so the caller knows where to link
// a freshly brk'd block.
func (a *Allocator) searchFreeSpotOrLast(total uintptr) (fit block.Addr, found bool, last block.Addr, err error) {
	switch a.strategy {
	case BestFit:
		return a.searchBestFit(total)
	default:
		return a.searchFirstFit(total)
	}
}

func (a *Allocator) searchFirstFit(total uintptr) (block.Addr, bool, block.Addr, error) {
	current := a.root
	for block.Next(current) != 0 {
		current = block.Next(current)
		if block.IsFree(current) && block.TotalSize(current) >= total {
			return current, true, current, nil
		}
	}
	return 0, false, current, nil
}

func (a *Allocator) searchBestFit(total uintptr) (block.Addr, bool, block.Addr, error) {
	current := a.root
	var best block.Addr
	found := false
	var bestSize uintptr

	for block.Next(current) != 0 {
		current = block.Next(current)
		sz := block.TotalSize(current)
		if block.IsFree(current) && sz >= total {
			if !found || sz < bestSize {
				best = current
				bestSize = sz
				found = true
			}
		}
	}

	if found {
		return best, true, best, nil
	}
	return 0, false, current, nil
}
