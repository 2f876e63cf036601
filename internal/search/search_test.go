package search

import (
	"sync/atomic"
	"testing"

	"github.com/keegansmith/lazysmp-chess/internal/board"
	"github.com/keegansmith/lazysmp-chess/internal/tt"
)

func newWorkerForFEN(t *testing.T, fen string, cfg Config, table *tt.Table, stop *atomic.Bool) *Worker {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return NewWorker(pos, table, stop, cfg, 1, 2)
}

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNegaMaxDepthOneNearZeroAtStart(t *testing.T) {
	var stop atomic.Bool
	table := tt.New(1)
	w := newWorkerForFEN(t, startFEN, Config{QSearch: false, PVSearch: false}, table, &stop)

	eval := w.NegaMax(MinEval, MaxEval, 1)
	if eval < -50 || eval > 50 {
		t.Fatalf("expected near-zero eval at depth 1 from the symmetric start position, got %d", eval)
	}
}

// TestPVMatchesNegaMaxFullWindow checks property #2: pv_search with a full
// window returns the same eval as nega_max with the same window.
func TestPVMatchesNegaMaxFullWindow(t *testing.T) {
	var stopA, stopB atomic.Bool
	tableA := tt.New(1)
	tableB := tt.New(1)

	wNega := newWorkerForFEN(t, startFEN, Config{QSearch: false, PVSearch: false}, tableA, &stopA)
	wPV := newWorkerForFEN(t, startFEN, Config{QSearch: false, PVSearch: true}, tableB, &stopB)

	negaEval := wNega.NegaMax(MinEval, MaxEval, 2)
	pvEval := wPV.PVSearchNode(MinEval, MaxEval, 2)

	if negaEval != pvEval {
		t.Fatalf("nega_max=%d, pv_search=%d; expected equal full-window evals", negaEval, pvEval)
	}
}

// TestNullWindowSoundness checks property #3: the returned value is either
// strictly below beta (valid upper bound) or at/above beta (valid lower
// bound) — there is no third outcome.
func TestNullWindowSoundness(t *testing.T) {
	var stop atomic.Bool
	table := tt.New(1)
	w := newWorkerForFEN(t, startFEN, Config{QSearch: true, PVSearch: true}, table, &stop)

	const beta = 50
	v := w.NullWindowSearch(beta, 3)
	if v >= beta {
		return // valid lower bound
	}
	// valid upper bound, nothing further to check
}

func TestQSearchOffReturnsStandPatImmediately(t *testing.T) {
	var stop atomic.Bool
	table := tt.New(1)
	w := newWorkerForFEN(t, startFEN, Config{QSearch: false}, table, &stop)

	want := w.standPat()
	w.nodes = 0
	got := w.QSearch(MinEval, MaxEval)
	if got != want {
		t.Fatalf("QSearch with QSearch disabled = %d, want stand-pat %d", got, want)
	}
}

func TestFoolsMateIsLosingForWhite(t *testing.T) {
	var stop atomic.Bool
	table := tt.New(1)
	const foolsMate = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	w := newWorkerForFEN(t, foolsMate, Config{QSearch: true, PVSearch: true}, table, &stop)

	const mateLike = MaxEval / 2
	eval := w.PVSearchNode(MinEval, MaxEval, 1)
	if eval > -mateLike {
		t.Fatalf("expected a heavily losing eval for White to move against fool's mate, got %d", eval)
	}
}

func TestRootMaxFirstFinisherClaimsResult(t *testing.T) {
	var stop atomic.Bool
	table := tt.New(1)
	w := newWorkerForFEN(t, startFEN, Config{QSearch: false, PVSearch: true}, table, &stop)

	var result Result
	var nodes atomic.Uint64
	w.RootMax(MinEval, MaxEval, 2, &result, &nodes)

	if result.Move == board.NoMove {
		t.Fatal("expected RootMax to claim a best move")
	}
	if result.Depth != 2 {
		t.Fatalf("expected result depth 2, got %d", result.Depth)
	}
	if nodes.Load() == 0 {
		t.Fatal("expected a nonzero node count after a depth-2 root search")
	}
	if !stop.Load() {
		t.Fatal("expected RootMax to set the stop flag on completion")
	}
}

func TestRootMaxLoserDoesNotOverwriteResult(t *testing.T) {
	table := tt.New(1)
	var stop atomic.Bool
	stop.Store(true) // simulate another worker having already finished

	w := newWorkerForFEN(t, startFEN, Config{QSearch: false, PVSearch: true}, table, &stop)
	result := Result{Move: board.NewMove(board.E2, board.E4), Eval: 42, Depth: 7}
	var nodes atomic.Uint64

	w.RootMax(MinEval, MaxEval, 3, &result, &nodes)

	if result.Eval != 42 || result.Depth != 7 {
		t.Fatalf("a worker starting after stop was already set must not overwrite the published result, got %+v", result)
	}
}

func TestCancellationReturnsPromptly(t *testing.T) {
	table := tt.New(1)
	var stop atomic.Bool
	stop.Store(true)

	w := newWorkerForFEN(t, startFEN, Config{QSearch: true, PVSearch: true}, table, &stop)
	eval := w.PVSearchNode(MinEval, MaxEval, 4)
	_ = eval // must return without panicking even though stop is already set
}
