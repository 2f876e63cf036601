// Package benchstore persists benchmark run records to BadgerDB so a
// position's search results can be compared across commits. This is
// distinct from the transposition table: the TT stays in-memory and racy
// for the lifetime of one search, while a benchstore.Store survives across
// process runs and exists purely for regression tracking.
package benchstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const runKeyPrefix = "run:"

// Run is one benchmark run's record: the position searched, the depth and
// worker count used, and the Result it produced.
type Run struct {
	ID              string    `json:"id"`
	FEN             string    `json:"fen"`
	Depth           int       `json:"depth"`
	Workers         int       `json:"workers"`
	Move            string    `json:"move"`
	Eval            int32     `json:"eval"`
	Nodes           uint64    `json:"nodes"`
	DurationSeconds float64   `json:"duration_seconds"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// Store wraps a BadgerDB handle scoped to benchmark run records.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening benchstore at %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save assigns a fresh run ID, stamps RecordedAt, and persists the run.
func (s *Store) Save(run Run) (Run, error) {
	run.ID = uuid.NewString()
	run.RecordedAt = time.Now()

	data, err := json.Marshal(run)
	if err != nil {
		return Run{}, fmt.Errorf("marshaling run: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(runKeyPrefix+run.ID), data)
	})
	if err != nil {
		return Run{}, fmt.Errorf("storing run: %w", err)
	}
	return run, nil
}

// History returns every stored run for the given FEN, most-recently-stored
// runs are not guaranteed to sort first; callers wanting chronological order
// should sort by RecordedAt.
func (s *Store) History(fen string) ([]Run, error) {
	var runs []Run

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var run Run
				if err := json.Unmarshal(val, &run); err != nil {
					return err
				}
				if run.FEN == fen {
					runs = append(runs, run)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading run history: %w", err)
	}
	return runs, nil
}
