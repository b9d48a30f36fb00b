package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/tubesense/internal/domain/types"
	"github.com/okian/tubesense/pkg/metrics"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithClock sets the time source for finish timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (or creates) the ledger at path and migrates its schema.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: pragmas: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
	  id                TEXT PRIMARY KEY,
	  channel_id        TEXT NOT NULL,
	  mode              TEXT NOT NULL,
	  status            TEXT NOT NULL,
	  started_at        TEXT NOT NULL,
	  finished_at       TEXT,
	  videos_included   INTEGER NOT NULL DEFAULT 0,
	  videos_excluded   INTEGER NOT NULL DEFAULT 0,
	  videos_failed     INTEGER NOT NULL DEFAULT 0,
	  comments_weighted INTEGER NOT NULL DEFAULT 0,
	  error             TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_channel ON runs(channel_id, started_at);
	`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Begin(ctx context.Context, run types.Run) error {
	if run.ID == "" || run.ChannelID == "" {
		return fmt.Errorf("%w: id and channel_id are required", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	if run.Status == "" {
		run.Status = types.StatusQueued
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, channel_id, mode, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ChannelID, run.Mode, run.Status, formatTime(run.StartedAt),
	)
	if err != nil {
		metrics.RecordErrorByComponent("history", "begin")
		return fmt.Errorf("history: insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) MarkRunning(ctx context.Context, id string) error {
	return s.update(ctx, "mark_running",
		`UPDATE runs SET status = ? WHERE id = ?`, id, types.StatusRunning, id)
}

func (s *SQLiteStore) Finish(ctx context.Context, run types.Run) error {
	finished := s.now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	return s.update(ctx, "finish",
		`UPDATE runs SET status = ?, finished_at = ?, videos_included = ?, videos_excluded = ?,
		 videos_failed = ?, comments_weighted = ?, error = ? WHERE id = ?`,
		run.ID,
		run.Status, formatTime(finished), run.VideosIncluded, run.VideosExcluded,
		run.VideosFailed, run.CommentsWeighted, run.Error, run.ID,
	)
}

func (s *SQLiteStore) update(ctx context.Context, op, query, id string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		metrics.RecordErrorByComponent("history", op)
		return fmt.Errorf("history: %s %s: %w", op, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const selectRun = `SELECT id, channel_id, mode, status, started_at, finished_at,
	videos_included, videos_excluded, videos_failed, comments_weighted, error FROM runs`

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		metrics.RecordErrorByComponent("history", "get")
		return types.Run{}, fmt.Errorf("history: get %s: %w", id, err)
	}
	return run, nil
}

func (s *SQLiteStore) ListByChannel(ctx context.Context, channelID string, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		selectRun+` WHERE channel_id = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		channelID, limit)
	if err != nil {
		metrics.RecordErrorByComponent("history", "list")
		return nil, fmt.Errorf("history: list %s: %w", channelID, err)
	}
	defer rows.Close()

	out := []types.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("history: list %s: %w", channelID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var (
		run      types.Run
		started  string
		finished sql.NullString
	)
	err := sc.Scan(&run.ID, &run.ChannelID, &run.Mode, &run.Status, &started, &finished,
		&run.VideosIncluded, &run.VideosExcluded, &run.VideosFailed, &run.CommentsWeighted, &run.Error)
	if err != nil {
		return types.Run{}, err
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return types.Run{}, fmt.Errorf("started_at: %w", err)
	}
	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return types.Run{}, fmt.Errorf("finished_at: %w", err)
		}
		run.FinishedAt = &t
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
