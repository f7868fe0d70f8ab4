package report

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/heapbench/heapbench/internal/errors"
	"github.com/heapbench/heapbench/internal/sampler"
)

// createTablesSQL is the results database schema. One row per run, per
// sample, and per batch failure.
const createTablesSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	scenario    TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	cycles      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	run_id        TEXT NOT NULL REFERENCES runs(run_id),
	cycle         INTEGER NOT NULL,
	timestamp     INTEGER NOT NULL,
	heap_alloc    INTEGER NOT NULL,
	heap_sys      INTEGER NOT NULL,
	heap_objects  INTEGER NOT NULL,
	num_gc        INTEGER NOT NULL,
	active_items  INTEGER NOT NULL,
	registry_size INTEGER NOT NULL,
	pause_ns      INTEGER NOT NULL,
	PRIMARY KEY (run_id, cycle)
);

CREATE TABLE IF NOT EXISTS failures (
	run_id  TEXT NOT NULL REFERENCES runs(run_id),
	cycle   INTEGER NOT NULL,
	message TEXT NOT NULL
);
`

// SQLiteSink persists run reports into a results database so samples can be
// compared across runs.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the results database at dbPath.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewReportError(errors.CodePersistFailed, "report: failed to open results database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, errors.NewReportError(errors.CodePersistFailed, "report: failed to create schema", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Write persists the report in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, report *sampler.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewReportError(errors.CodePersistFailed, "report: begin failed", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, scenario, started_at, elapsed_ns, cycles) VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.Scenario, report.StartedAt.UnixNano(), int64(report.Elapsed), report.Cycles)
	if err != nil {
		return errors.NewReportError(errors.CodePersistFailed, "report: insert run failed", err)
	}

	sampleStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO samples
		 (run_id, cycle, timestamp, heap_alloc, heap_sys, heap_objects, num_gc, active_items, registry_size, pause_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewReportError(errors.CodePersistFailed, "report: prepare failed", err)
	}
	defer sampleStmt.Close()

	for _, sample := range report.Samples {
		_, err := sampleStmt.ExecContext(ctx,
			report.RunID, sample.Cycle, sample.Timestamp.UnixNano(),
			int64(sample.HeapAlloc), int64(sample.HeapSys), int64(sample.HeapObjects),
			int64(sample.NumGC), sample.ActiveItems, sample.RegistrySize, int64(sample.Pause))
		if err != nil {
			return errors.NewReportError(errors.CodePersistFailed, "report: insert sample failed", err)
		}
	}

	for _, failure := range report.Failures {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO failures (run_id, cycle, message) VALUES (?, ?, ?)`,
			report.RunID, failure.Cycle, failure.Message)
		if err != nil {
			return errors.NewReportError(errors.CodePersistFailed, "report: insert failure failed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewReportError(errors.CodePersistFailed, "report: commit failed", err)
	}
	return nil
}

// SampleCount returns the number of persisted samples for a run.
func (s *SQLiteSink) SampleCount(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, errors.NewReportError(errors.CodePersistFailed, "report: count query failed", err)
	}
	return count, nil
}

// Close closes the results database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
