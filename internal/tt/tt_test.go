package tt

import (
	"testing"

	"github.com/keegansmith/lazysmp-chess/internal/board"
)

func TestProbeMiss(t *testing.T) {
	table := New(1)
	if _, ok := table.Probe(0x1234, 4); ok {
		t.Fatal("expected miss on empty table")
	}
}

func TestStoreThenProbeRoundTrip(t *testing.T) {
	table := New(1)
	want := Info{Eval: 150, Move: board.NewMove(board.E2, board.E4), Depth: 6, Kind: Exact}
	table.Store(0xABCDEF, want, 6)

	got, ok := table.Probe(0xABCDEF, 6)
	if !ok {
		t.Fatal("expected hit immediately after store")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestStoreSameKeyOverwritesInPlace(t *testing.T) {
	table := New(1)
	const key = 0x42424242
	table.Store(key, Info{Eval: 10, Depth: 3, Kind: Upper}, 3)
	table.Store(key, Info{Eval: 20, Depth: 3, Kind: Exact}, 3)

	got, ok := table.Probe(key, 3)
	if !ok || got.Eval != 20 || got.Kind != Exact {
		t.Fatalf("expected overwritten entry, got %+v ok=%v", got, ok)
	}
}

func TestDepthKeyedAddressingIsolatesDepths(t *testing.T) {
	table := New(1)
	const key = 0x9999
	table.Store(key, Info{Eval: 5, Depth: 2, Kind: Exact}, 2)

	if _, ok := table.Probe(key, 3); ok {
		t.Fatal("a store at depth 2 must not be visible at depth 3 (depth-keyed addressing)")
	}
	if got, ok := table.Probe(key, 2); !ok || got.Eval != 5 {
		t.Fatalf("store at depth 2 should still be visible at depth 2, got %+v ok=%v", got, ok)
	}
}

// TestReplacementMonotonicity checks that after a sequence
// of stores that collide into the same bucket, the bucket holds the
// highest-ordered items seen (EXACT beats non-EXACT, then higher depth).
func TestReplacementMonotonicity(t *testing.T) {
	table := New(1)
	// Force all candidates into the same bucket by using the same depth and
	// keys chosen so (key+depth)&mask collides; with mask derived from a
	// 1MB table the easiest way is to reuse the same key across distinct
	// "logical" entries, which the API already treats as a same-key
	// overwrite — so instead we probe the bucket directly via the public
	// surface by storing several *distinct* keys that hash to the same
	// bucket index. Since index is (key+depth)&mask, keys that differ by a
	// multiple of (mask+1) collide.
	const depth = 5
	bucketPeriod := table.mask + 1

	entries := []Info{
		{Eval: 1, Depth: depth, Kind: Upper},
		{Eval: 2, Depth: depth, Kind: Lower},
		{Eval: 3, Depth: depth, Kind: Exact},
		{Eval: 4, Depth: depth, Kind: Upper},
		{Eval: 5, Depth: depth, Kind: Upper}, // should not displace the 4 above it
	}
	for i, info := range entries {
		key := uint64(i+1) * bucketPeriod
		table.Store(key, info, depth)
	}

	idx := table.index(bucketPeriod, depth)
	b := &table.buckets[idx]

	var seen []Info
	for _, e := range b.entries {
		if e.key != 0 {
			seen = append(seen, e.info)
		}
	}
	if len(seen) != entriesPerBucket {
		t.Fatalf("expected bucket full with %d entries, got %d: %+v", entriesPerBucket, len(seen), seen)
	}

	foundExact := false
	for _, info := range seen {
		if info.Kind == Exact {
			foundExact = true
		}
	}
	if !foundExact {
		t.Fatal("the EXACT entry must survive a bucket that also received non-EXACT candidates")
	}
}

func TestExtractPVStopsOnMiss(t *testing.T) {
	table := New(1)
	pos := board.NewPosition()

	move := board.NewMove(board.E2, board.E4)
	table.Store(pos.Hash, Info{Eval: 30, Move: move, Depth: 3, Kind: Exact}, 3)

	pv := ExtractPV(table, pos, 3)
	if len(pv) != 1 || pv[0] != move {
		t.Fatalf("expected single-move PV [%v], got %v", move, pv)
	}
}

func TestExtractPVEmptyOnImmediateMiss(t *testing.T) {
	table := New(1)
	pos := board.NewPosition()

	pv := ExtractPV(table, pos, 4)
	if len(pv) != 0 {
		t.Fatalf("expected empty PV, got %v", pv)
	}
}

func TestHashFullReflectsOccupancy(t *testing.T) {
	// A degenerate single-bucket table (sizeMB=0 forces the minimum of one
	// bucket) makes the occupancy fraction exact and easy to reason about.
	table := New(0)
	if full := table.HashFull(1); full != 0 {
		t.Fatalf("expected 0 permille on an empty table, got %d", full)
	}

	const depth = 1
	table.Store(1, Info{Eval: 1, Depth: depth, Kind: Upper}, depth)
	table.Store(2, Info{Eval: 2, Depth: depth, Kind: Upper}, depth)

	full := table.HashFull(1)
	if full != 500 {
		t.Fatalf("expected 500 permille (2 of 4 slots filled), got %d", full)
	}
}

func TestInfoLessOrdering(t *testing.T) {
	exact := Info{Kind: Exact, Depth: 1}
	upperDeep := Info{Kind: Upper, Depth: 9}
	if upperDeep.less(exact) != true {
		t.Error("non-EXACT must be less than EXACT regardless of depth")
	}
	if exact.less(upperDeep) != false {
		t.Error("EXACT must never be less than non-EXACT")
	}

	shallow := Info{Kind: Upper, Depth: 2}
	deep := Info{Kind: Upper, Depth: 5}
	if !shallow.less(deep) {
		t.Error("within the same bound kind, lower depth must be less")
	}
	if deep.less(shallow) {
		t.Error("within the same bound kind, higher depth must not be less")
	}
}
