package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"podjoin/internal/config"
)

// Store manages export history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RecordStart inserts a new running entry and fills in its ID and timestamps.
func (s *Store) RecordStart(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("nil run")
	}
	now := time.Now()
	run.Status = StatusRunning
	run.CreatedAt = now
	run.UpdatedAt = now

	res, err := s.execWithRetry(ctx, `
        INSERT INTO runs (job_id, episode_dir, chapter, output_path, baseline_lufs, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.JobID, run.EpisodeDir, run.Chapter, run.OutputPath, run.BaselineLUFS,
		string(run.Status), timestamp(now), timestamp(now))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read run id: %w", err)
	}
	run.ID = id
	return nil
}

// SetBaseline records the measured baseline loudness for a running entry.
func (s *Store) SetBaseline(ctx context.Context, id int64, lufs float64) error {
	_, err := s.execWithRetry(ctx,
		"UPDATE runs SET baseline_lufs = ?, updated_at = ? WHERE id = ?",
		lufs, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set baseline: %w", err)
	}
	return nil
}

// MarkCompleted finalizes a run as successful.
func (s *Store) MarkCompleted(ctx context.Context, id int64, outputPath string) error {
	_, err := s.execWithRetry(ctx,
		"UPDATE runs SET status = ?, output_path = ?, updated_at = ? WHERE id = ?",
		string(StatusCompleted), outputPath, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed finalizes a run as failed with an error classification.
func (s *Store) MarkFailed(ctx context.Context, id int64, kind, message string) error {
	_, err := s.execWithRetry(ctx,
		"UPDATE runs SET status = ?, error_kind = ?, error_message = ?, updated_at = ? WHERE id = ?",
		string(StatusFailed), kind, message, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

const runColumns = "id, job_id, episode_dir, chapter, output_path, baseline_lufs, status, error_kind, error_message, created_at, updated_at"

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var (
		run                  Run
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&run.ID, &run.JobID, &run.EpisodeDir, &run.Chapter, &run.OutputPath,
		&run.BaselineLUFS, &status, &run.ErrorKind, &run.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.CreatedAt = parseTimestamp(createdAt)
	run.UpdatedAt = parseTimestamp(updatedAt)
	return &run, nil
}

// Get returns the run with the given ID, or nil when absent.
func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan run: %w", scanErr)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
