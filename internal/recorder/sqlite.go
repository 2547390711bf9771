package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/scanner"
)

// SQLiteRecorder persists the scan audit log to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets dashboards read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			run_id       TEXT PRIMARY KEY,
			started      INTEGER NOT NULL,
			finished     INTEGER NOT NULL,
			source       TEXT,
			triggered_by TEXT,
			tuples       INTEGER,
			signals      INTEGER,
			no_signal    INTEGER,
			failures     INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started)`,

		`CREATE TABLE IF NOT EXISTS scan_pattern_counts (
			run_id  TEXT NOT NULL,
			pattern TEXT NOT NULL,
			signals INTEGER,
			PRIMARY KEY (run_id, pattern)
		)`,

		`CREATE TABLE IF NOT EXISTS scan_failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			ticker    TEXT,
			timeframe TEXT,
			pattern   TEXT,
			kind      TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_failures_run ON scan_failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO scan_runs
		(run_id, started, finished, source, triggered_by, tuples, signals, no_signal, failures)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.Started.UnixMilli(), run.Finished.UnixMilli(), run.Source, run.Trigger,
		run.Tuples, run.Signals, run.NoSignal, len(run.Failures),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for kind, n := range run.PatternSignals {
		if _, err := tx.Exec(`INSERT INTO scan_pattern_counts (run_id, pattern, signals) VALUES (?,?,?)`,
			run.RunID, string(kind), n); err != nil {
			return fmt.Errorf("insert pattern count: %w", err)
		}
	}
	for _, f := range run.Failures {
		if _, err := tx.Exec(`INSERT INTO scan_failures
			(run_id, ticker, timeframe, pattern, kind, message)
			VALUES (?,?,?,?,?,?)`,
			run.RunID, f.Ticker, string(f.Timeframe), string(f.Pattern), f.Kind, f.Message,
		); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LastScan() (*ScanRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		run               ScanRun
		started, finished int64
		failures          int
	)
	err := r.db.QueryRow(`SELECT run_id, started, finished, source, triggered_by, tuples, signals, no_signal, failures
		FROM scan_runs ORDER BY started DESC LIMIT 1`).
		Scan(&run.RunID, &started, &finished, &run.Source, &run.Trigger,
			&run.Tuples, &run.Signals, &run.NoSignal, &failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	run.Started = time.UnixMilli(started)
	run.Finished = time.UnixMilli(finished)

	rows, err := r.db.Query(`SELECT pattern, signals FROM scan_pattern_counts WHERE run_id = ?`, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("query pattern counts: %w", err)
	}
	run.PatternSignals = make(map[model.PatternKind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, err
		}
		run.PatternSignals[model.PatternKind(kind)] = n
	}
	rows.Close()

	rows, err = r.db.Query(`SELECT ticker, timeframe, pattern, kind, message
		FROM scan_failures WHERE run_id = ? ORDER BY id`, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d scanner.Diagnostic
		var tf, pattern string
		if err := rows.Scan(&d.Ticker, &tf, &pattern, &d.Kind, &d.Message); err != nil {
			return nil, err
		}
		d.Timeframe, d.Pattern = model.Timeframe(tf), model.PatternKind(pattern)
		run.Failures = append(run.Failures, d)
	}
	if len(run.Failures) != failures {
		log.Warn().Str("run_id", run.RunID).Msg("failure rows do not match recorded count")
	}
	return &run, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
