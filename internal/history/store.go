package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// ErrNotFound indicates the referenced run does not exist.
var ErrNotFound = errors.New("run not found")

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records a run as running. StartedAt defaults to now.
func (s *Store) Begin(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("begin run: empty id")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO runs (
        id, video, subtitle, output, status, parallel, atomic, started_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Video,
		run.Subtitle,
		run.Output,
		string(StatusRunning),
		boolToInt(run.Parallel),
		boolToInt(run.Atomic),
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish records the outcome of a run. A nil runErr marks it succeeded.
func (s *Store) Finish(ctx context.Context, id string, runErr error, artifacts int) error {
	status := StatusSucceeded
	message := ""
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `UPDATE runs
        SET status = ?, error_message = ?, artifacts = ?, finished_at = ?
        WHERE id = ?`,
		string(status),
		message,
		artifacts,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// MinPrefixLength is the shortest id prefix Get resolves.
const MinPrefixLength = 4

// Get returns a single run by id. A prefix of at least MinPrefixLength
// characters also matches when exactly one run starts with it.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if err == nil || !errors.Is(err, sql.ErrNoRows) {
		return run, err
	}
	if len(id) < MinPrefixLength {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(id)
	rows, err := s.db.QueryContext(ctx, selectRuns+` WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escaped+"%")
	if err != nil {
		return Run{}, fmt.Errorf("query runs by prefix: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		match, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
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
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

const selectRuns = `SELECT id, video, subtitle, output, status, error_message, artifacts,
    parallel, atomic, started_at, finished_at FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (Run, error) {
	var (
		run      Run
		status   string
		parallel int
		atomic   int
		started  string
		finished sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Video,
		&run.Subtitle,
		&run.Output,
		&status,
		&run.ErrorMessage,
		&run.Artifacts,
		&parallel,
		&atomic,
		&started,
		&finished,
	); err != nil {
		return Run{}, err
	}
	if parsed, ok := ParseStatus(status); ok {
		run.Status = parsed
	} else {
		run.Status = Status(status)
	}
	run.Parallel = parallel != 0
	run.Atomic = atomic != 0

	startedAt, err := parseTime(started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at for %s: %w", run.ID, err)
	}
	run.StartedAt = startedAt
	if finished.Valid && finished.String != "" {
		finishedAt, err := parseTime(finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("parse finished_at for %s: %w", run.ID, err)
		}
		run.FinishedAt = &finishedAt
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
