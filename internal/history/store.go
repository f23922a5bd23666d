// Package history persists completed preflight runs to a local SQLite
// database so past environment states can be listed and inspected.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/droidgate/droidgate/internal/errors"
	"github.com/droidgate/droidgate/internal/preflight"
)

// historySchema defines the tables for recorded runs.
const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	summary TEXT NOT NULL,
	ndk_dir TEXT NOT NULL DEFAULT '',
	target_api INTEGER NOT NULL,
	ndk_api INTEGER NOT NULL,
	arch TEXT NOT NULL,
	interpreter TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

CREATE TABLE IF NOT EXISTS check_results (
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	remediation TEXT NOT NULL DEFAULT '',
	code TEXT NOT NULL DEFAULT '',
	required INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (run_id, name)
);
`

// Run is one recorded preflight run with aggregate check counts.
type Run struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Summary     string    `json:"summary"`
	NDKDir      string    `json:"ndk_dir,omitempty"`
	TargetAPI   int       `json:"target_api"`
	NDKAPI      int       `json:"ndk_api"`
	Arch        string    `json:"arch"`
	Interpreter string    `json:"interpreter,omitempty"`
	Passed      int       `json:"passed"`
	Warnings    int       `json:"warnings"`
	Failures    int       `json:"failures"`
}

// Store records and queries preflight runs in SQLite.
// It implements the preflight Recorder interface.
type Store struct {
	db     *sql.DB
	path   string
	lock   *FileLock
	ownsDB bool
}

// NewStore creates a history store over an existing database connection.
// The history tables must already exist; see InitHistorySchema.
// Close becomes a no-op, the connection stays owned by the caller.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Store{db: db}, nil
}

// InitHistorySchema creates the history tables if they don't exist.
func InitHistorySchema(db *sql.DB) error {
	if _, err := db.Exec(historySchema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Open opens the history database at path, creating the file and its
// parent directory as needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to create history directory %s", dir), err)
	}

	// WAL for concurrent read access, NORMAL sync for durability/speed balance.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeHistoryStore, "failed to open history database", err)
	}

	// Single connection avoids SQLITE_BUSY under concurrent access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-65536",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.New(errors.ErrCodeHistoryStore,
				fmt.Sprintf("failed to set %s", pragma), err)
		}
	}

	if err := InitHistorySchema(db); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrCodeHistoryStore, "failed to initialize history schema", err)
	}

	return &Store{
		db:     db,
		path:   path,
		lock:   NewFileLock(dir),
		ownsDB: true,
	}, nil
}

// Path returns the database file path, or "" for stores over an
// injected connection.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// RecordRun persists a completed run and its per-check results in a
// single transaction.
func (s *Store) RecordRun(ctx context.Context, inputs preflight.RunInputs, summary string, results []preflight.CheckResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, summary, ndk_dir, target_api, ndk_api, arch, interpreter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, createdAt, summary, inputs.NDKDir, inputs.TargetAPI, inputs.NDKAPI, inputs.Arch, inputs.Interpreter)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO check_results (run_id, name, status, message, details, remediation, code, required)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		required := 0
		if r.Required {
			required = 1
		}
		if _, err := stmt.ExecContext(ctx, id, r.Name, r.Status.String(), r.Message, r.Details, r.Remediation, r.Code, required); err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRuns returns recorded runs newest first, at most limit of them.
// A limit of zero or less applies the default of 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.summary, r.ndk_dir, r.target_api, r.ndk_api, r.arch, r.interpreter,
		       COALESCE(SUM(CASE WHEN c.status = 'PASS' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.status = 'WARN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.status = 'FAIL' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN check_results c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns one run and its per-check results. The id may be a
// unique prefix, so "droidgate history show 3f2a" works like git.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []preflight.CheckResult, error) {
	resolved, err := s.resolveRunID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.summary, r.ndk_dir, r.target_api, r.ndk_api, r.arch, r.interpreter,
		       COALESCE(SUM(CASE WHEN c.status = 'PASS' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.status = 'WARN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.status = 'FAIL' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN check_results c ON c.run_id = r.id
		WHERE r.id = ?
		GROUP BY r.id`, resolved)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to query run: %w", err)
		}
		return nil, nil, fmt.Errorf("run %s not found", id)
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, nil, err
	}
	rows.Close()

	results, err := s.runResults(ctx, resolved)
	if err != nil {
		return nil, nil, err
	}

	return &run, results, nil
}

// Prune deletes all but the newest keep runs and compacts the database
// file. It refuses to run while another droidgate process holds the
// history lock, because VACUUM cannot tolerate concurrent writers.
// Returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	if s.lock != nil {
		acquired, err := s.lock.TryLock()
		if err != nil {
			return 0, errors.New(errors.ErrCodeLockFailed, "failed to lock history store", err)
		}
		if !acquired {
			return 0, errors.New(errors.ErrCodeLockFailed,
				"another droidgate process is using the history store", nil)
		}
		defer s.lock.Unlock()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	keepQuery := `SELECT id FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM check_results WHERE run_id NOT IN (`+keepQuery+`)`, keep); err != nil {
		return 0, fmt.Errorf("failed to prune check results: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (`+keepQuery+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Reclaim the space the deleted runs held.
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return int(deleted), fmt.Errorf("failed to checkpoint history database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return int(deleted), fmt.Errorf("failed to vacuum history database: %w", err)
	}

	return int(deleted), nil
}

// resolveRunID expands a run id prefix to the full id.
func (s *Store) resolveRunID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("run id is required")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM runs WHERE id LIKE ? || '%' ORDER BY created_at DESC LIMIT 2`, id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve run id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var full string
		if err := rows.Scan(&full); err != nil {
			return "", fmt.Errorf("failed to scan run id: %w", err)
		}
		matches = append(matches, full)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to resolve run id: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id %s is ambiguous", id)
	}
}

// runResults loads the per-check results of one run in insertion order.
func (s *Store) runResults(ctx context.Context, runID string) ([]preflight.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, message, details, remediation, code, required
		FROM check_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query check results: %w", err)
	}
	defer rows.Close()

	var results []preflight.CheckResult
	for rows.Next() {
		var r preflight.CheckResult
		var status string
		var required int
		if err := rows.Scan(&r.Name, &status, &r.Message, &r.Details, &r.Remediation, &r.Code, &required); err != nil {
			return nil, fmt.Errorf("failed to scan check result: %w", err)
		}
		// Rows are written from a CheckStatus; an unknown string means a
		// hand-edited database, read it as PASS rather than failing the load.
		if parsed, perr := preflight.ParseStatus(status); perr == nil {
			r.Status = parsed
		}
		r.Required = required != 0
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate check results: %w", err)
	}

	return results, nil
}

// scanRun reads one aggregated run row.
func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var createdAt string
	if err := rows.Scan(&run.ID, &createdAt, &run.Summary, &run.NDKDir, &run.TargetAPI,
		&run.NDKAPI, &run.Arch, &run.Interpreter, &run.Passed, &run.Warnings, &run.Failures); err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse run timestamp %q: %w", createdAt, err)
	}
	run.CreatedAt = ts

	return run, nil
}
