package allocator

import (
	"testing"

	"blockheap/pkg/block"
	"blockheap/pkg/brk"
)

func totalSize(dataSize uintptr) uintptr {
	return block.Size + block.Align(dataSize)
}

func currentBreak(t *testing.T, a *Allocator) uintptr {
	t.Helper()
	b, err := a.brk.Sbrk(0)
	if err != nil {
		t.Fatalf("Sbrk(0): %v", err)
	}
	return b
}

func TestMallocRejectsNonPositiveSize(t *testing.T) {
	a := New(FirstFit, brk.NewFakeSource(1<<20))
	if _, err := a.Malloc(0); err == nil {
		t.Fatal("expected error for zero-size Malloc")
	}
	if _, err := a.Malloc(-1); err == nil {
		t.Fatal("expected error for negative-size Malloc")
	}
}

func TestFreeRejectsNilPointer(t *testing.T) {
	a := New(FirstFit, brk.NewFakeSource(1<<20))
	if err := a.Free(nil); err == nil {
		t.Fatal("expected error for nil Free")
	}
}

func TestHeapGrowthAccounting(t *testing.T) {
	a := New(FirstFit, brk.NewFakeSource(1<<20))

	// Force init before measuring, so the root sentinel's own growth
	// isn't counted against the requested sizes below.
	a.mu.Lock()
	if err := a.init(); err != nil {
		a.mu.Unlock()
		t.Fatalf("init: %v", err)
	}
	a.mu.Unlock()

	initial := currentBreak(t, a)

	sizes := []int{3, 4, 8, 13, 28, 321}
	var want uintptr
	for _, s := range sizes {
		if _, err := a.Malloc(s); err != nil {
			t.Fatalf("Malloc(%d): %v", s, err)
		}
		want += totalSize(uintptr(s))
	}

	final := currentBreak(t, a)
	if final-initial != want {
		t.Errorf("break grew by %d, want %d", final-initial, want)
	}
}

func TestCoalescingFreesReclaim(t *testing.T) {
	a := New(FirstFit, brk.NewFakeSource(1<<20))

	p1, err := a.Malloc(18)
	if err != nil {
		t.Fatalf("Malloc(18): %v", err)
	}
	if err := a.Free(p1); err != nil {
		t.Fatalf("Free(p1): %v", err)
	}
	peak := currentBreak(t, a)

	steps := []int{17, 18, 24}
	for _, s := range steps {
		p, err := a.Malloc(s)
		if err != nil {
			t.Fatalf("Malloc(%d): %v", s, err)
		}
		if err := a.Free(p); err != nil {
			t.Fatalf("Free: %v", err)
		}
	}

	final := currentBreak(t, a)
	if final > peak {
		t.Errorf("break grew to %d after coalescing frees, want <= %d", final, peak)
	}
}

func TestSplitMergePeak(t *testing.T) {
	a := New(FirstFit, brk.NewFakeSource(8 << 20))
	const M = 1 << 16 // kept small so the fake arena doesn't need to be huge

	pa, err := a.Malloc(M)
	if err != nil {
		t.Fatalf("Malloc(a): %v", err)
	}
	pb, err := a.Malloc(M)
	if err != nil {
		t.Fatalf("Malloc(b): %v", err)
	}
	pc, err := a.Malloc(M)
	if err != nil {
		t.Fatalf("Malloc(c): %v", err)
	}
	peak := currentBreak(t, a)

	if err := a.Free(pa); err != nil {
		t.Fatalf("Free(a): %v", err)
	}
	if err := a.Free(pb); err != nil {
		t.Fatalf("Free(b): %v", err)
	}
	if err := a.Free(pc); err != nil {
		t.Fatalf("Free(c): %v", err)
	}

	pd, err := a.Malloc(3 * M)
	if err != nil {
		t.Fatalf("Malloc(d): %v", err)
	}
	if err := a.Free(pd); err != nil {
		t.Fatalf("Free(d): %v", err)
	}

	final := currentBreak(t, a)
	if final != peak {
		t.Errorf("break after coalesced reuse = %d, want unchanged peak %d", final, peak)
	}
}

func TestHeapSizeTracksBreakGrowth(t *testing.T) {
	a := New(FirstFit, brk.NewFakeSource(1<<20))

	if size, err := a.HeapSize(); err != nil || size != 0 {
		t.Fatalf("HeapSize() before init = (%d, %v), want (0, nil)", size, err)
	}

	p, err := a.Malloc(64)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	grown, err := a.HeapSize()
	if err != nil {
		t.Fatalf("HeapSize: %v", err)
	}
	if grown == 0 {
		t.Fatal("HeapSize should be non-zero after an allocation")
	}

	if err := a.Free(p); err != nil {
		t.Fatalf("Free: %v", err)
	}
	afterFree, err := a.HeapSize()
	if err != nil {
		t.Fatalf("HeapSize: %v", err)
	}
	if afterFree != grown {
		t.Errorf("HeapSize should not shrink on Free: got %d, want %d", afterFree, grown)
	}
}

func TestBestFitReusesFreedSpace(t *testing.T) {
	a := New(BestFit, brk.NewFakeSource(1<<20))

	small, err := a.Malloc(64)
	if err != nil {
		t.Fatalf("Malloc(small): %v", err)
	}
	mid, err := a.Malloc(256)
	if err != nil {
		t.Fatalf("Malloc(mid): %v", err)
	}
	_, err = a.Malloc(16)
	if err != nil {
		t.Fatalf("Malloc(guard): %v", err)
	}

	if err := a.Free(small); err != nil {
		t.Fatalf("Free(small): %v", err)
	}
	if err := a.Free(mid); err != nil {
		t.Fatalf("Free(mid): %v", err)
	}

	before := currentBreak(t, a)
	if _, err := a.Malloc(200); err != nil {
		t.Fatalf("Malloc(200): %v", err)
	}
	after := currentBreak(t, a)
	if after != before {
		t.Errorf("best-fit should have reused the coalesced 64+256-byte free block without growing the break")
	}
}
