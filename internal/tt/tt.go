// Package tt implements the shared, racy transposition table that backs
// the Lazy-SMP search: a fixed-size array of cache-line-sized buckets
// indexed by (Zobrist key, depth), tolerant of concurrent readers and
// writers without a global lock.
package tt

import (
	"sync"

	"github.com/keegansmith/lazysmp-chess/internal/board"
)

// Bound classifies the stored eval against the window it was searched with.
type Bound uint8

const (
	// Exact means the stored eval is the true minimax value of the node.
	Exact Bound = iota
	// Upper means the true value is <= the stored eval (search failed low).
	Upper
	// Lower means the true value is >= the stored eval (search failed high).
	Lower
)

// entriesPerBucket is the fixed slot count per bucket.
const entriesPerBucket = 4

// defaultShardCount is the number of RWMutex shards guarding the table.
// A global lock would serialize the whole search (disallowed); sharding
// keeps contention low while still ruling out torn 96-bit-ish writes.
const defaultShardCount = 1024

// Info is the value half of a transposition table entry.
type Info struct {
	Eval  int32
	Move  board.Move
	Depth int8
	Kind  Bound
}

// less reports whether a is strictly worse than b under the replacement
// ordering: EXACT beats non-EXACT; within the same category, higher depth
// wins; ties are "not less than" (a slot is only displaced by something
// strictly better).
func (a Info) less(b Info) bool {
	if a.Kind == Exact && b.Kind != Exact {
		return false
	}
	if a.Kind != Exact && b.Kind == Exact {
		return true
	}
	return a.Depth < b.Depth
}

type entry struct {
	key  uint64
	info Info
}

// bucket holds entriesPerBucket entries. Each entry is 16 bytes (an 8-byte
// key plus an 8-byte Info), so a 4-entry bucket is exactly 64 bytes — one
// cache line on essentially every current CPU. Go gives no portable way to
// force 64-byte alignment on slice elements short of unsafe.Pointer
// arithmetic (which the corpus this engine is grounded on doesn't use
// either), so this relies on the allocator's normal alignment plus the
// bucket's natural size matching a cache line, rather than an explicit
// alignas(64).
type bucket struct {
	entries [entriesPerBucket]entry
}

// Table is the shared transposition table. All methods are safe for
// concurrent use by many searchers; the contract is racy, not
// linearizable — see the package doc.
type Table struct {
	buckets []bucket
	mask    uint64
	shards  []sync.RWMutex
}

// New creates a table sized to approximately sizeMB megabytes, rounding
// the bucket count down to a power of two so indexing can use a mask
// instead of a modulo.
func New(sizeMB int) *Table {
	const bucketSize = 64 // entriesPerBucket * 16-byte entries
	numBuckets := uint64(sizeMB) * 1024 * 1024 / bucketSize
	if numBuckets == 0 {
		numBuckets = 1
	}
	numBuckets = roundDownToPowerOfTwo(numBuckets)

	shardCount := defaultShardCount
	if uint64(shardCount) > numBuckets {
		shardCount = int(numBuckets)
	}

	return &Table{
		buckets: make([]bucket, numBuckets),
		mask:    numBuckets - 1,
		shards:  make([]sync.RWMutex, shardCount),
	}
}

func roundDownToPowerOfTwo(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// index returns the bucket index for (key, depth): depth is folded into
// the address deliberately, so the same position at different depths
// lives in different buckets — a deliberate divergence from classical
// engines that key on position alone.
func (t *Table) index(key uint64, depth int) uint64 {
	return (key + uint64(depth)) & t.mask
}

func (t *Table) shardFor(idx uint64) *sync.RWMutex {
	return &t.shards[idx%uint64(len(t.shards))]
}

// Probe returns the stored info for (key, depth), if any.
func (t *Table) Probe(key uint64, depth int) (Info, bool) {
	idx := t.index(key, depth)
	shard := t.shardFor(idx)

	shard.RLock()
	defer shard.RUnlock()

	b := &t.buckets[idx]
	for i := range b.entries {
		if b.entries[i].key == key {
			return b.entries[i].info, true
		}
	}
	return Info{}, false
}

// Store writes info for key at the given depth (info.Depth must equal
// depth). An existing slot for the same key is overwritten in place;
// otherwise the bucket is bubbled down, displacing the first slots whose
// current info is strictly worse than the new one; an empty slot (key 0)
// reached on the way takes the entry in hand.
func (t *Table) Store(key uint64, info Info, depth int) {
	idx := t.index(key, depth)
	shard := t.shardFor(idx)

	shard.Lock()
	defer shard.Unlock()

	b := &t.buckets[idx]
	for i := range b.entries {
		if b.entries[i].key == key {
			b.entries[i].info = info
			return
		}
	}

	pendingKey, pendingInfo := key, info
	for i := range b.entries {
		if b.entries[i].key == 0 {
			b.entries[i].key, b.entries[i].info = pendingKey, pendingInfo
			return
		}
		if b.entries[i].info.less(pendingInfo) {
			b.entries[i].key, pendingKey = pendingKey, b.entries[i].key
			b.entries[i].info, pendingInfo = pendingInfo, b.entries[i].info
		}
	}
	// Whatever remains in hand after the pass is discarded — it was worse
	// than every slot it was compared against.
}

// HashFull samples up to sampleBuckets buckets spread evenly across the
// table and returns the fraction of occupied slots, in permille (0-1000),
// the same convention UCI engines report for their "hashfull" field.
func (t *Table) HashFull(sampleBuckets int) int {
	total := len(t.buckets)
	if total == 0 {
		return 0
	}
	if sampleBuckets <= 0 || sampleBuckets > total {
		sampleBuckets = total
	}
	stride := total / sampleBuckets
	if stride == 0 {
		stride = 1
	}

	var filled, scanned int
	for idx := 0; idx < total && scanned < sampleBuckets*entriesPerBucket; idx += stride {
		shard := t.shardFor(uint64(idx))
		shard.RLock()
		for _, e := range t.buckets[idx].entries {
			scanned++
			if e.key != 0 {
				filled++
			}
		}
		shard.RUnlock()
	}
	if scanned == 0 {
		return 0
	}
	return filled * 1000 / scanned
}

// ExtractPV walks the principal variation starting at pos by repeatedly
// probing at decreasing depth, applying the stored move to a working copy,
// and stopping at depth 0 or the first miss.
func ExtractPV(t *Table, pos *board.Position, depth int) []board.Move {
	working := pos.Copy()
	var pv []board.Move
	for depth > 0 {
		info, ok := t.Probe(working.Hash, depth)
		if !ok {
			break
		}
		pv = append(pv, info.Move)
		working.MakeMove(info.Move)
		depth--
	}
	return pv
}
