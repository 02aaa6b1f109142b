package server

import (
	"time"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

// messageFor picks the single outbound type for an outcome. Game end beats
// inning end, which beats the play itself.
func messageFor(o game.Outcome) protocol.MessageType {
	switch {
	case o.GameEnded:
		return protocol.MsgGameEnded
	case o.InningEnded:
		return protocol.MsgInningEnded
	}
	switch o.Play {
	case game.PlayPitch:
		return protocol.MsgPitchThrown
	case game.PlayStrikeout:
		return protocol.MsgStrikeout
	case game.PlayWalk:
		return protocol.MsgWalk
	case game.PlayHit, game.PlayHomeRun:
		return protocol.MsgBallHit
	case game.PlayCatch, game.PlayDrop:
		return protocol.MsgBallCaught
	case game.PlayThrow, game.PlayReturn:
		return protocol.MsgBallThrown
	case game.PlayAdvance, game.PlayThrownOut:
		return protocol.MsgRunnerAdvanced
	case game.PlayRunScored:
		return protocol.MsgRunScored
	default:
		return protocol.MsgSwingResult
	}
}

// payloadFor builds the wire payload of an outcome from the state after it
// was applied. arrival only matters for pitch-thrown.
func payloadFor(o game.Outcome, g game.GameState, arrival time.Duration) protocol.PlayPayload {
	p := protocol.PlayPayload{
		Play:         o.Play,
		Actor:        o.Actor,
		Swung:        o.Swung,
		Timeout:      o.Timeout,
		Trajectory:   o.Trajectory,
		Position:     o.Position,
		CatchChance:  o.CatchChance,
		Base:         o.Base,
		To:           o.To,
		Runs:         o.Runs,
		OutsRecorded: o.OutsRecorded,
		InningEnded:  o.InningEnded,
		GameEnded:    o.GameEnded,
		Winner:       o.Winner,
	}

	switch o.Play {
	case game.PlayPitch:
		p.Pitch = g.PendingPitch
		p.ArrivalMs = arrival.Milliseconds()
	case game.PlayBall, game.PlayStrike, game.PlayCalledStrike, game.PlayStrikeout, game.PlayWalk:
		inZone := o.InZone
		p.InZone = &inZone
	case game.PlayCatch, game.PlayDrop:
		caught := o.Caught
		p.Caught = &caught
	case game.PlayAdvance, game.PlayThrownOut, game.PlayRunScored:
		from := o.From
		p.From = &from
	}
	if o.Swung {
		ms := o.TimingError.Milliseconds()
		p.TimingErrorMs = &ms
	}
	if o.GameEnded {
		score := g.Score
		p.Score = &score
	}
	return p
}

// LogEntry is one broadcast event kept in the room's in-memory log.
type LogEntry struct {
	Seq    int                  `json:"seq"`
	Type   protocol.MessageType `json:"type"`
	Play   game.Play            `json:"play,omitempty"`
	Actor  game.Side            `json:"actor,omitempty"`
	Detail string               `json:"detail,omitempty"`
	Inning int                  `json:"inning"`
	Half   game.Half            `json:"half"`
	Score  game.Score           `json:"score"`
	At     time.Time            `json:"at"`
}

// eventLog is a fixed-size ring of the most recent entries.
type eventLog struct {
	entries []LogEntry
	start   int
	seq     int
}

func newEventLog(size int) *eventLog {
	if size <= 0 {
		size = 1
	}
	return &eventLog{entries: make([]LogEntry, 0, size)}
}

func (l *eventLog) add(e LogEntry) {
	l.seq++
	e.Seq = l.seq
	if len(l.entries) < cap(l.entries) {
		l.entries = append(l.entries, e)
		return
	}
	l.entries[l.start] = e
	l.start = (l.start + 1) % len(l.entries)
}

// list returns the entries oldest first.
func (l *eventLog) list() []LogEntry {
	out := make([]LogEntry, 0, len(l.entries))
	out = append(out, l.entries[l.start:]...)
	return append(out, l.entries[:l.start]...)
}
