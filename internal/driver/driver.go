// Package driver implements the Lazy-SMP iterative-deepening loop: for each
// depth it spawns N independent search workers against one shared
// transposition table and one shared stop flag, joins them, and publishes
// the depth's result.
package driver

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/keegansmith/lazysmp-chess/internal/board"
	"github.com/keegansmith/lazysmp-chess/internal/search"
	"github.com/keegansmith/lazysmp-chess/internal/tt"
)

// hashFullSampleBuckets bounds how many buckets the per-iteration log line
// samples to estimate table occupancy; scanning the whole table every depth
// would itself contend with the shards workers are using.
const hashFullSampleBuckets = 4096

// Driver owns the transposition table and runs the Lazy-SMP loop across
// depths 1..D. The same Driver, and therefore the same TT, is meant to be
// reused across an entire multi-depth search: the table is never cleared
// between iterations, so later depths benefit from earlier ones.
type Driver struct {
	table   *tt.Table
	cfg     search.Config
	workers int
	seed    uint64
	log     zerolog.Logger
}

// New creates a Driver with its own transposition table of approximately
// ttSizeMB megabytes. seed fixes the per-worker PRNG family: with workers=1
// a fixed seed makes the (move, eval) result deterministic across runs, the
// basis for regression testing Lazy SMP without real concurrency noise.
func New(ttSizeMB, workers int, cfg search.Config, seed uint64, logger zerolog.Logger) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		table:   tt.New(ttSizeMB),
		cfg:     cfg,
		workers: workers,
		seed:    seed,
		log:     logger,
	}
}

// Table exposes the shared transposition table, mainly so callers can
// extract a human-readable PV after a search completes.
func (d *Driver) Table() *tt.Table {
	return d.table
}

// workerSeeds derives a pair of seed words for worker i at the given
// depth. Mixing in the depth keeps workers from replaying the exact same
// shuffle at every iteration; mixing in i keeps them distinct from each
// other within one iteration.
func workerSeeds(base uint64, depth, i int) (uint64, uint64) {
	const mix = 0x9E3779B97F4A7C15 // golden-ratio constant, standard splitmix64 increment
	seed1 := base ^ (uint64(i)+1)*mix ^ uint64(depth)
	seed2 := base*31 + uint64(depth)*7 + uint64(i) + 1
	return seed1, seed2
}

// Search runs iterative deepening from depth 1 to maxDepth and returns the
// final iteration's result. Every intermediate iteration's result is logged
// but only the last is returned, matching the single Result record the
// caller publishes at the end of a bounded-depth search.
func (d *Driver) Search(pos *board.Position, maxDepth int) search.Result {
	var result search.Result

	for depth := 1; depth <= maxDepth; depth++ {
		var stop atomic.Bool
		var nodes atomic.Uint64
		var g errgroup.Group

		start := time.Now()
		for i := 0; i < d.workers; i++ {
			i := i
			g.Go(func() error {
				clone := pos.Copy()
				seed1, seed2 := workerSeeds(d.seed, depth, i)
				w := search.NewWorker(clone, d.table, &stop, d.cfg, seed1, seed2)
				w.RootMax(search.MinEval, search.MaxEval, depth, &result, &nodes)
				return nil
			})
		}
		_ = g.Wait()
		elapsed := time.Since(start)

		result.Depth = uint16(depth)
		result.Nodes = nodes.Load()
		result.DurationSeconds = elapsed.Seconds()

		d.log.Info().
			Int("depth", depth).
			Int32("eval", result.Eval).
			Uint64("nodes", result.Nodes).
			Float64("elapsed_s", result.DurationSeconds).
			Int("hashfull", d.table.HashFull(hashFullSampleBuckets)).
			Msg("iteration complete")
	}

	return result
}
