package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourusername/pitchside/internal/game"
)

const (
	timeFormat        = time.RFC3339Nano
	defaultBufferSize = 256
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	play       TEXT NOT NULL,
	inning     INTEGER NOT NULL,
	half       TEXT NOT NULL,
	home_score INTEGER NOT NULL,
	away_score INTEGER NOT NULL,
	winner     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_room_idx ON events (room_id, created_at);
`

// SQLiteSink persists records through a single writer goroutine. Emit drops
// the record when the buffer is full.
type SQLiteSink struct {
	db      *sql.DB
	logger  *slog.Logger
	records chan Record
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// OpenSQLite opens (or creates) the analytics database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("analytics path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteSink{
		db:      db,
		logger:  logger,
		records: make(chan Record, defaultBufferSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Emit queues a record for writing.
func (s *SQLiteSink) Emit(r Record) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.records <- r:
	default:
		s.dropped.Add(1)
		if s.logger != nil {
			s.logger.Warn("analytics buffer full, record dropped", "room_id", r.RoomID, "play", r.Play)
		}
	}
}

// Dropped returns how many records were discarded because the buffer was
// full.
func (s *SQLiteSink) Dropped() int64 {
	return s.dropped.Load()
}

func (s *SQLiteSink) run() {
	defer close(s.done)
	for r := range s.records {
		if err := s.insert(context.Background(), r); err != nil && s.logger != nil {
			s.logger.Error("analytics write failed", "room_id", r.RoomID, "error", err)
		}
	}
}

func (s *SQLiteSink) insert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, room_id, kind, play, inning, half, home_score, away_score, winner, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RoomID, string(r.Kind), string(r.Play), r.Inning, string(r.Half),
		r.Score.Home, r.Score.Away, string(r.Winner), r.At.UTC().Format(timeFormat),
	)
	return err
}

// Recent returns up to limit records for a room, oldest first.
func (s *SQLiteSink) Recent(ctx context.Context, roomID string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, kind, play, inning, half, home_score, away_score, winner, created_at
		 FROM events WHERE room_id = ? ORDER BY created_at, rowid LIMIT ?`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                     Record
			kind, play, half, win string
			createdAt             string
		)
		if err := rows.Scan(&r.ID, &r.RoomID, &kind, &play, &r.Inning, &half,
			&r.Score.Home, &r.Score.Away, &win, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Kind = Kind(kind)
		r.Play = game.Play(play)
		r.Half = game.Half(half)
		r.Winner = game.Side(win)
		if r.At, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close drains queued records and closes the database.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.records)
	s.mu.Unlock()

	<-s.done
	return s.db.Close()
}
