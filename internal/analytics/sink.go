// Package analytics receives fire-and-forget play records from rooms. Sinks
// never block the caller.
package analytics

import (
	"log/slog"
	"time"

	"github.com/yourusername/pitchside/internal/game"
)

// Kind classifies a record.
type Kind string

const (
	KindAtBat   Kind = "at-bat"
	KindGameEnd Kind = "game-end"
)

// Record is one completed at-bat or game summary.
type Record struct {
	ID     string     `json:"id"`
	RoomID string     `json:"roomId"`
	Kind   Kind       `json:"kind"`
	Play   game.Play  `json:"play"`
	Inning int        `json:"inning"`
	Half   game.Half  `json:"half"`
	Score  game.Score `json:"score"`
	Winner game.Side  `json:"winner,omitempty"`
	At     time.Time  `json:"at"`
}

// Sink accepts records without blocking.
type Sink interface {
	Emit(Record)
}

// LogSink writes records to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs at info.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(r Record) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Info("play recorded",
		"record_id", r.ID,
		"room_id", r.RoomID,
		"kind", r.Kind,
		"play", r.Play,
		"inning", r.Inning,
		"half", r.Half,
		"home", r.Score.Home,
		"away", r.Score.Away,
	)
}

// Multi fans a record out to several sinks.
type Multi []Sink

func (m Multi) Emit(r Record) {
	for _, s := range m {
		if s != nil {
			s.Emit(r)
		}
	}
}

// Discard drops every record.
type Discard struct{}

func (Discard) Emit(Record) {}
