package driver

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/keegansmith/lazysmp-chess/internal/board"
	"github.com/keegansmith/lazysmp-chess/internal/search"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func mustParse(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestSearchStartingPositionDepthOne(t *testing.T) {
	d := New(1, 1, search.Config{QSearch: false, PVSearch: true}, 7, zerolog.Nop())
	pos := mustParse(t, startFEN)

	result := d.Search(pos, 1)
	if result.Move == board.NoMove {
		t.Fatal("expected a legal move at depth 1")
	}
	if result.Depth != 1 {
		t.Fatalf("expected depth 1, got %d", result.Depth)
	}
	if result.Eval < -50 || result.Eval > 50 {
		t.Fatalf("expected a near-zero eval from the symmetric start position, got %d", result.Eval)
	}
}

func TestSearchStartingPositionDepthFour(t *testing.T) {
	d := New(1, 1, search.Config{QSearch: true, PVSearch: true}, 11, zerolog.Nop())
	pos := mustParse(t, startFEN)

	result := d.Search(pos, 4)
	if result.Eval < -50 || result.Eval > 50 {
		t.Fatalf("expected a drawish eval at depth 4, got %d", result.Eval)
	}
}

// TestDeterminismSingleWorkerFixedSeed checks property #6: with N=1 and a
// fixed seed, the (move, eval) result for a fixed position and depth is
// deterministic across runs.
func TestDeterminismSingleWorkerFixedSeed(t *testing.T) {
	cfg := search.Config{QSearch: true, PVSearch: true}

	d1 := New(1, 1, cfg, 99, zerolog.Nop())
	r1 := d1.Search(mustParse(t, startFEN), 3)

	d2 := New(1, 1, cfg, 99, zerolog.Nop())
	r2 := d2.Search(mustParse(t, startFEN), 3)

	if r1.Move != r2.Move || r1.Eval != r2.Eval {
		t.Fatalf("expected deterministic result with N=1 and fixed seed, got %+v vs %+v", r1, r2)
	}
}

// TestDeterminismAcrossWorkerCounts checks property #6's second half: eval
// (not necessarily move) is deterministic regardless of worker count, since
// every worker searches the true game tree and the shared TT only affects
// speed, not the final minimax value at a given depth.
func TestDeterminismAcrossWorkerCounts(t *testing.T) {
	cfg := search.Config{QSearch: true, PVSearch: true}

	single := New(1, 1, cfg, 5, zerolog.Nop())
	rSingle := single.Search(mustParse(t, startFEN), 2)

	many := New(1, 8, cfg, 5, zerolog.Nop())
	rMany := many.Search(mustParse(t, startFEN), 2)

	if rSingle.Eval != rMany.Eval {
		t.Fatalf("expected identical eval across worker counts, got %d vs %d", rSingle.Eval, rMany.Eval)
	}
}

func TestFoolsMateDriverDepthOne(t *testing.T) {
	const foolsMate = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	d := New(1, 2, search.Config{QSearch: true, PVSearch: true}, 3, zerolog.Nop())

	result := d.Search(mustParse(t, foolsMate), 1)
	const mateLike = search.MaxEval / 2
	if result.Eval > -mateLike {
		t.Fatalf("expected a heavily losing eval for White against fool's mate, got %d", result.Eval)
	}
}

func TestResultCarriesNodesAndDuration(t *testing.T) {
	d := New(1, 2, search.Config{QSearch: false, PVSearch: true}, 42, zerolog.Nop())
	result := d.Search(mustParse(t, startFEN), 2)

	if result.Nodes == 0 {
		t.Fatal("expected nonzero node count")
	}
	if result.DurationSeconds < 0 {
		t.Fatal("expected a non-negative duration")
	}
}
