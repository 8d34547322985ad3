package brk

import "testing"

func TestSbrkInitialisesFromQuery(t *testing.T) {
	src := NewFakeSource(4096)
	b := New(src)

	before, err := b.Sbrk(0)
	if err != nil {
		t.Fatalf("Sbrk(0): %v", err)
	}
	if before == 0 {
		t.Fatalf("expected non-zero base address")
	}

	got, err := b.Sbrk(64)
	if err != nil {
		t.Fatalf("Sbrk(64): %v", err)
	}
	if got != before {
		t.Errorf("Sbrk(64) returned %d, want break before growth %d", got, before)
	}

	after, err := b.Brk(0)
	if err != nil {
		t.Fatalf("Brk(0): %v", err)
	}
	if after != before+64 {
		t.Errorf("break after growth = %d, want %d", after, before+64)
	}
}

func TestSbrkAccumulates(t *testing.T) {
	b := New(NewFakeSource(4096))

	start, _ := b.Sbrk(0)
	sizes := []uintptr{8, 16, 32, 64}
	var total uintptr
	for _, s := range sizes {
		if _, err := b.Sbrk(s); err != nil {
			t.Fatalf("Sbrk(%d): %v", s, err)
		}
		total += s
	}

	end, err := b.Brk(0)
	if err != nil {
		t.Fatalf("Brk(0): %v", err)
	}
	if end != start+total {
		t.Errorf("final break = %d, want %d", end, start+total)
	}
}

func TestSbrkRejectedWhenArenaExhausted(t *testing.T) {
	b := New(NewFakeSource(16))

	if _, err := b.Sbrk(8); err != nil {
		t.Fatalf("Sbrk(8): %v", err)
	}
	if _, err := b.Sbrk(1024); err == nil {
		t.Fatal("expected Sbrk to fail once the arena is exhausted")
	}
}
