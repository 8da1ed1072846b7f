package dump

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/clawinfra/popgenlab/internal/engine"
)

// Ledger is an additive, optional SQLite-backed run history: one row per
// completed generation and one per dump written, independent of the
// dump/load text format (which the embedder writes at its configured
// cadence). Nothing in the core reads the
// ledger back; it exists purely so an embedder can inspect run history
// after the fact without re-running the simulation.
type Ledger struct {
	db    *sql.DB
	runID string
}

// OpenLedger opens (creating if necessary) a SQLite-backed ledger at
// path, migrates its schema, and stamps every row recorded through this
// handle with a freshly minted run id so that successive runs appending
// to the same ledger file remain distinguishable from one another.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dump: open ledger: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("dump: ledger wal mode: %w", err)
	}
	l := &Ledger{db: db, runID: uuid.NewString()}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// RunID returns the id minted for this ledger handle's lifetime,
// suitable for correlating a run's log output with the
// rows it wrote.
func (l *Ledger) RunID() string { return l.runID }

func (l *Ledger) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS generations (
			run_id               TEXT NOT NULL,
			generation           INTEGER NOT NULL,
			substitutions_fixed  INTEGER NOT NULL,
			mean_fitness_json    TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		)
	`)
	if err != nil {
		return fmt.Errorf("dump: ledger migrate: %w", err)
	}
	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS dumps (
			run_id      TEXT NOT NULL,
			generation  INTEGER NOT NULL,
			path        TEXT NOT NULL,
			checksum    TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		)
	`)
	if err != nil {
		return fmt.Errorf("dump: ledger migrate dumps table: %w", err)
	}
	return nil
}

// RecordGeneration appends one row for the engine's current Stats
// snapshot, keyed by this ledger's run id and the generation that just
// completed.
func (l *Ledger) RecordGeneration(ctx context.Context, generation int64, stats engine.Stats) error {
	meanFitnessJSON, err := marshalMeanFitness(stats.MeanFitnessBySubpop)
	if err != nil {
		return fmt.Errorf("dump: ledger marshal stats: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO generations (run_id, generation, substitutions_fixed, mean_fitness_json) VALUES (?, ?, ?, ?)`,
		l.runID, generation, stats.SubstitutionsFixed, meanFitnessJSON)
	if err != nil {
		return fmt.Errorf("dump: ledger insert: %w", err)
	}
	return nil
}

// RecordDump records the BLAKE2b-256 checksum of a dump
// file written for generation, alongside its path, so an embedder can
// later verify a dumped file on disk was not corrupted or truncated
// without re-running the simulation.
func (l *Ledger) RecordDump(ctx context.Context, generation int64, path, checksum string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO dumps (run_id, generation, path, checksum) VALUES (?, ?, ?, ?)`,
		l.runID, generation, path, checksum)
	if err != nil {
		return fmt.Errorf("dump: ledger insert dump record: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// marshalMeanFitness renders the per-subpopulation mean-fitness map as a
// small deterministic JSON object, keyed by p<id> in ascending id order.
// The ledger is a diagnostic side table outside the dump/load round-trip
// property, so a hand-written literal is sufficient here.
func marshalMeanFitness(m map[int]float64) (string, error) {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := "{"
	for i, k := range keys {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q:%g", fmt.Sprintf("p%d", k), m[k])
	}
	out += "}"
	return out, nil
}
