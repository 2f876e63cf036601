// Package search implements the recursive alpha-beta family that backs one
// Lazy-SMP worker: quiescence, null-window, principal-variation, and plain
// negamax, all sharing a single transposition table probe/store protocol.
package search

import (
	"math/rand"
	"sync/atomic"

	"github.com/keegansmith/lazysmp-chess/internal/board"
	"github.com/keegansmith/lazysmp-chess/internal/tt"
)

// Search bounds. MaxEval is kept well clear of int32 overflow so -eval is
// always representable; MinEval is its negation.
const (
	MaxEval int32 = 1 << 30
	MinEval int32 = -MaxEval
)

// Config selects the two compile-time flags from the original design as
// runtime toggles: QSearch turns quiescence on or off at leaves, PVSearch
// picks PV search over plain negamax at the root and in recursion.
type Config struct {
	QSearch  bool
	PVSearch bool
}

// Result is the record a root search publishes: the first worker to finish
// an iteration claims it and fills Move/Eval/Depth; the driver fills Nodes
// and DurationSeconds once every worker of that iteration has joined.
type Result struct {
	Move            board.Move
	Eval            int32
	Depth           uint16
	Nodes           uint64
	DurationSeconds float64
}

// Worker owns one Position clone and runs the recursions against a shared
// TT and a shared stop flag. A Worker is not safe for concurrent use by more
// than one goroutine; Lazy SMP runs one Worker per goroutine.
type Worker struct {
	pos   *board.Position
	table *tt.Table
	stop  *atomic.Bool
	cfg   Config
	rng   *rand.Rand
	nodes uint64
}

// NewWorker creates a Worker over its own Position clone. seed1/seed2 are
// combined into the seed of a math/rand source local to this worker; a
// shared RNG across workers would serialize move shuffling, so every worker
// must carry its own.
func NewWorker(pos *board.Position, table *tt.Table, stop *atomic.Bool, cfg Config, seed1, seed2 uint64) *Worker {
	return &Worker{
		pos:   pos,
		table: table,
		stop:  stop,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(int64(seed1 ^ seed2))),
	}
}

// Nodes returns the number of nodes visited since the last ResetNodes.
func (w *Worker) Nodes() uint64 {
	return w.nodes
}

// ResetNodes zeroes the node counter; RootMax calls it first, once per
// iterative-deepening depth.
func (w *Worker) ResetNodes() {
	w.nodes = 0
}

// shuffleMoves performs an in-place Fisher-Yates shuffle, matching the
// generate_shuffled_moves pattern: for each index i, swap in a uniformly
// random element from i..end.
func (w *Worker) shuffleMoves(ml *board.MoveList) {
	n := ml.Len()
	for i := 0; i < n; i++ {
		j := i + w.rng.Intn(n-i)
		ml.Swap(i, j)
	}
}

// bringHintToFront moves hint to index 0 if present anywhere in ml.
func bringHintToFront(ml *board.MoveList, hint board.Move) {
	if hint == board.NoMove {
		return
	}
	for i := 0; i < ml.Len(); i++ {
		if ml.Get(i) == hint {
			if i != 0 {
				ml.Swap(0, i)
			}
			return
		}
	}
}

// probeResult is what ttProbe reports back to a caller.
type probeResult struct {
	hint     board.Move
	cutoff   bool
	cutoffOn int32 // valid only if cutoff is true
}

// ttProbe implements the shared probe/update protocol: it may narrow
// alpha/beta in place, signal an immediate cutoff, or surface a
// TT-move hint (falling back to the depth-1 entry for the hint only, never
// mutating the window from a shallower probe).
func (w *Worker) ttProbe(key uint64, depth int, alpha, beta *int32) probeResult {
	if info, ok := w.table.Probe(key, depth); ok {
		if info.Kind == tt.Exact {
			return probeResult{hint: info.Move, cutoff: true, cutoffOn: info.Eval}
		}
		if info.Kind == tt.Upper {
			if info.Eval < *beta {
				*beta = info.Eval
			}
		} else if info.Kind == tt.Lower {
			if info.Eval > *alpha {
				*alpha = info.Eval
			}
		}
		if *alpha >= *beta {
			return probeResult{hint: info.Move, cutoff: true, cutoffOn: info.Eval}
		}
		return probeResult{hint: info.Move}
	}
	if info, ok := w.table.Probe(key, depth-1); ok {
		return probeResult{hint: info.Move}
	}
	return probeResult{}
}

// standPat clamps the static evaluator's return value up to MinEval so that
// negating it in the inverted quiescence window never overflows.
func (w *Worker) standPat() int32 {
	w.nodes++
	e := int32(w.pos.Eval())
	if e < MinEval {
		e = MinEval
	}
	return e
}

// QSearch is the full-window quiescence variant.
func (w *Worker) QSearch(alpha, beta int32) int32 {
	eval := w.standPat()
	if !w.cfg.QSearch {
		return eval
	}
	if eval >= beta {
		return eval
	}
	if eval > alpha {
		alpha = eval
	}

	captures := w.pos.GenerateCaptures()
	for i := 0; i < captures.Len(); i++ {
		move := captures.Get(i)
		undo := w.pos.MakeMove(move)
		inner := -w.QSearch(-beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if inner > eval {
			eval = inner
			if eval >= beta {
				break
			}
			if eval > alpha {
				alpha = eval
			}
		}
		if w.stop.Load() {
			return eval
		}
	}
	return eval
}

// NWQSearch is the null-window quiescence variant used by scout searches.
func (w *Worker) NWQSearch(beta int32) int32 {
	eval := w.standPat()
	if !w.cfg.QSearch {
		return eval
	}
	if eval >= beta {
		return eval
	}

	captures := w.pos.GenerateCaptures()
	for i := 0; i < captures.Len(); i++ {
		move := captures.Get(i)
		undo := w.pos.MakeMove(move)
		inner := -w.NWQSearch(-beta + 1)
		w.pos.UnmakeMove(move, undo)

		if inner > eval {
			eval = inner
			if eval >= beta {
				break
			}
		}
		if w.stop.Load() {
			return eval
		}
	}
	return eval
}

// NullWindowSearch scouts a node with a one-point window (beta-1, beta). It
// never produces an EXACT bound: it can only fail low (Upper) or high (Lower).
func (w *Worker) NullWindowSearch(beta int32, depth int) int32 {
	alpha := beta - 1
	probe := w.ttProbe(w.pos.Hash, depth, &alpha, &beta)
	if probe.cutoff {
		return probe.cutoffOn
	}
	hint := probe.hint

	eval := MinEval
	bestMove := hint
	kind := tt.Upper

	moves := w.pos.GenerateLegalMoves()
	w.shuffleMoves(moves)
	bringHintToFront(moves, hint)

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := w.pos.MakeMove(move)
		var inner int32
		if depth > 1 {
			inner = -w.NullWindowSearch(-beta+1, depth-1)
		} else {
			inner = -w.NWQSearch(-beta + 1)
		}
		w.pos.UnmakeMove(move, undo)

		if inner > eval {
			eval = inner
			bestMove = move
			if eval >= beta {
				kind = tt.Lower
				break
			}
		}
		if w.stop.Load() {
			return eval
		}
	}

	w.table.Store(w.pos.Hash, tt.Info{Eval: eval, Move: bestMove, Depth: int8(depth), Kind: kind}, depth)
	return eval
}

// PVSearchNode runs the principal-variation recursion: the first child is
// searched with the full window, later children are scouted with a
// null-window call and only re-searched at full width if the scout beats
// alpha.
func (w *Worker) PVSearchNode(alpha, beta int32, depth int) int32 {
	probe := w.ttProbe(w.pos.Hash, depth, &alpha, &beta)
	if probe.cutoff {
		return probe.cutoffOn
	}
	hint := probe.hint

	eval := MinEval
	bestMove := hint
	kind := tt.Upper

	moves := w.pos.GenerateLegalMoves()
	w.shuffleMoves(moves)
	bringHintToFront(moves, hint)

	searchFullWindow := true
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := w.pos.MakeMove(move)

		var inner int32
		switch {
		case depth == 1:
			inner = -w.QSearch(-beta, -alpha)
		case searchFullWindow:
			inner = -w.PVSearchNode(-beta, -alpha, depth-1)
			searchFullWindow = false
		default:
			inner = -w.NullWindowSearch(-alpha, depth-1)
			if inner > alpha {
				inner = -w.PVSearchNode(-beta, -alpha, depth-1)
			}
		}
		w.pos.UnmakeMove(move, undo)

		if inner > eval {
			eval = inner
			bestMove = move
			if eval >= beta {
				kind = tt.Lower
				break
			}
			if eval > alpha {
				alpha = eval
				kind = tt.Exact
			}
		}
		if w.stop.Load() {
			return eval
		}
	}

	w.table.Store(w.pos.Hash, tt.Info{Eval: eval, Move: bestMove, Depth: int8(depth), Kind: kind}, depth)
	return eval
}

// NegaMax is the plain negamax recursion: no scouting, every child gets the
// full window. It deliberately does not hoist the TT-hint move to the
// front before iterating.
func (w *Worker) NegaMax(alpha, beta int32, depth int) int32 {
	probe := w.ttProbe(w.pos.Hash, depth, &alpha, &beta)
	if probe.cutoff {
		return probe.cutoffOn
	}

	eval := MinEval
	bestMove := probe.hint
	kind := tt.Upper

	moves := w.pos.GenerateLegalMoves()
	w.shuffleMoves(moves)

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := w.pos.MakeMove(move)
		var inner int32
		if depth > 1 {
			inner = -w.NegaMax(-beta, -alpha, depth-1)
		} else {
			inner = -w.QSearch(-beta, -alpha)
		}
		w.pos.UnmakeMove(move, undo)

		if inner > eval {
			eval = inner
			bestMove = move
			if eval >= beta {
				kind = tt.Lower
				break
			}
			if eval > alpha {
				alpha = eval
				kind = tt.Exact
			}
		}
		if w.stop.Load() {
			return eval
		}
	}

	w.table.Store(w.pos.Hash, tt.Info{Eval: eval, Move: bestMove, Depth: int8(depth), Kind: kind}, depth)
	return eval
}

// RootMax runs one iterative-deepening iteration's root loop. It shuffles
// the root move list with this worker's own PRNG, swaps the TT-hint move to
// the front if present, walks the children with the search variant selected
// by cfg.PVSearch, and — if it is the first worker to finish — claims
// result and fills in Move/Eval/Depth. Losing finishers still add their
// node count to totalNodes, but never touch result.
func (w *Worker) RootMax(alpha, beta int32, depth int, result *Result, totalNodes *atomic.Uint64) {
	w.ResetNodes()

	probe := w.ttProbe(w.pos.Hash, depth, &alpha, &beta)
	if probe.cutoff {
		// A root entry already exists for this exact window and depth,
		// which means another worker has already published a result.
		return
	}
	hint := probe.hint

	moves := w.pos.GenerateLegalMoves()
	w.shuffleMoves(moves)
	bringHintToFront(moves, hint)

	eval := MinEval
	bestMove := board.NoMove
	searchFullWindow := true

	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := w.pos.MakeMove(move)

		var inner int32
		switch {
		case depth == 1:
			inner = -w.QSearch(-beta, -alpha)
		case !w.cfg.PVSearch:
			inner = -w.NegaMax(-beta, -alpha, depth-1)
		case searchFullWindow:
			inner = -w.PVSearchNode(-beta, -alpha, depth-1)
			searchFullWindow = false
		default:
			inner = -w.NullWindowSearch(-alpha, depth-1)
			if inner > alpha {
				inner = -w.PVSearchNode(-beta, -alpha, depth-1)
			}
		}
		w.pos.UnmakeMove(move, undo)

		if inner > eval {
			eval = inner
			bestMove = move
			if eval >= beta {
				break
			}
			if eval > alpha {
				alpha = eval
			}
		}

		if w.stop.Load() {
			totalNodes.Add(w.nodes)
			return
		}
	}

	w.table.Store(w.pos.Hash, tt.Info{Eval: eval, Move: bestMove, Depth: int8(depth), Kind: tt.Exact}, depth)

	iAmFirst := !w.stop.Swap(true)
	if iAmFirst {
		result.Move = bestMove
		result.Eval = eval
		result.Depth = uint16(depth)
	}
	totalNodes.Add(w.nodes)
}
