// Package history persists completed dictation sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/typeless-app/typeless-core/internal/config"
	_ "modernc.org/sqlite"
)

// Entry is one completed dictation: the raw transcript, the refined text,
// and the session's latency markers.
type Entry struct {
	ID            int64
	CreatedAt     time.Time
	RawInput      string
	RefinedOutput string
	KeyPressedAt  time.Time
	KeyReleasedAt time.Time
	STTDoneAt     time.Time
	LLMDoneAt     time.Time
}

// Store wraps a SQLite-backed dictation history. In ephemeral mode every
// operation is a no-op.
type Store struct {
	db    *sql.DB
	cfg   config.HistoryConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history store according to config.
func Open(ctx context.Context, cfg config.HistoryConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Prune(ctx); err != nil {
		log.Warn("history prune on start failed", slog.String("error", err.Error()))
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    raw_input TEXT NOT NULL,
    refined_output TEXT NOT NULL,
    key_pressed_at TIMESTAMP,
    key_released_at TIMESTAMP,
    stt_done_at TIMESTAMP,
    llm_done_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes one completed session and applies the entry-count cap.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if s.db == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history(created_at, raw_input, refined_output, key_pressed_at, key_released_at, stt_done_at, llm_done_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UTC(), e.RawInput, e.RefinedOutput,
		e.KeyPressedAt.UTC(), e.KeyReleasedAt.UTC(), e.STTDoneAt.UTC(), e.LLMDoneAt.UTC())
	if err != nil {
		return err
	}
	return s.Prune(ctx)
}

// ListRecent returns up to limit entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, raw_input, refined_output, key_pressed_at, key_released_at, stt_done_at, llm_done_at
		 FROM history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created, pressed, released, sttDone, llmDone string
		if err := rows.Scan(&e.ID, &created, &e.RawInput, &e.RefinedOutput, &pressed, &released, &sttDone, &llmDone); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTimestamp(created)
		e.KeyPressedAt = parseTimestamp(pressed)
		e.KeyReleasedAt = parseTimestamp(released)
		e.STTDoneAt = parseTimestamp(sttDone)
		e.LLMDoneAt = parseTimestamp(llmDone)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func parseTimestamp(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}

// Prune applies the entry cap and age-based retention.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	if s.cfg.MaxEntries > 0 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY id DESC LIMIT ?
		)`, s.cfg.MaxEntries); err != nil {
			return err
		}
	}
	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE created_at < ?`, cutoff.UTC()); err != nil {
			return err
		}
	}
	return nil
}
