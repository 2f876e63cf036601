// Command lazysmp-bench drives the Lazy-SMP driver over one FEN position,
// prints the final Result row and its PV (per-depth rows go to the log),
// and, when --db-dir is set, records that row in a benchstore for later
// regression comparison. It is a benchmark harness,
// not a UCI protocol loop.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/keegansmith/lazysmp-chess/internal/benchstore"
	"github.com/keegansmith/lazysmp-chess/internal/board"
	"github.com/keegansmith/lazysmp-chess/internal/config"
	"github.com/keegansmith/lazysmp-chess/internal/driver"
	"github.com/keegansmith/lazysmp-chess/internal/search"
	"github.com/keegansmith/lazysmp-chess/internal/tt"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func main() {
	fs := pflag.NewFlagSet("lazysmp-bench", pflag.ExitOnError)
	fen := fs.String("fen", startFEN, "FEN of the position to search")
	logLevel := fs.String("log-level", "info", "debug, info, or disabled")
	dbDir := fs.String("db-dir", "", "directory for the benchmark history store (empty disables persistence)")
	fs.Int("tt_size_mb", 64, "transposition table size in megabytes")
	fs.Int("workers", 4, "number of Lazy-SMP workers per depth")
	fs.Int("depth", 6, "maximum iterative-deepening depth")
	fs.Bool("q_search", true, "enable quiescence search at leaves")
	fs.Bool("pv_search", true, "use principal-variation search instead of plain negamax")
	fs.Uint64("seed", 1, "base seed for per-worker move shuffling")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	var logger zerolog.Logger
	switch *logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
		logger = zerolog.Nop()
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		logger.Fatal().Err(err).Str("fen", *fen).Msg("invalid FEN")
	}

	d := driver.New(cfg.TTSizeMB, cfg.Workers, search.Config{
		QSearch:  cfg.QSearch,
		PVSearch: cfg.PVSearch,
	}, cfg.Seed, logger)

	result := d.Search(pos, cfg.Depth)
	printResult(result, d.Table(), pos)

	if *dbDir != "" {
		store, err := benchstore.Open(*dbDir)
		if err != nil {
			logger.Error().Err(err).Msg("opening benchstore; skipping persistence")
		} else {
			defer store.Close()
			if _, err := store.Save(benchstore.Run{
				FEN:             *fen,
				Depth:           int(result.Depth),
				Workers:         cfg.Workers,
				Move:            result.Move.ToSAN(pos),
				Eval:            result.Eval,
				Nodes:           result.Nodes,
				DurationSeconds: result.DurationSeconds,
			}); err != nil {
				logger.Error().Err(err).Msg("saving benchmark run")
			}
		}
	}
}

func printResult(result search.Result, table *tt.Table, rootPos *board.Position) {
	fmt.Printf("depth %2d  eval %6d  nodes %10d  time %6.2fs  nps %10.0f\n",
		result.Depth, result.Eval, result.Nodes, result.DurationSeconds, nps(result))

	pv := tt.ExtractPV(table, rootPos, int(result.Depth))
	fmt.Print("pv:")
	walkingPos := rootPos.Copy()
	for _, m := range pv {
		fmt.Printf(" %s", m.ToSAN(walkingPos))
		walkingPos.MakeMove(m)
	}
	fmt.Println()
}

func nps(result search.Result) float64 {
	if result.DurationSeconds <= 0 {
		return 0
	}
	return float64(result.Nodes) / result.DurationSeconds
}
