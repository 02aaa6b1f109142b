package server

import (
	"time"

	"github.com/yourusername/pitchside/internal/game"
)

// Clock abstracts time for the room actor.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the part of *time.Timer the room needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type timerKind string

const (
	timerPitch timerKind = "pitch"
	timerPlay  timerKind = "play"
	timerReset timerKind = "reset"
	timerIdle  timerKind = "idle"
)

// roomTimer is a one-shot timer that posts into the room inbox. gen
// invalidates fires from a timer that was stopped after it had already
// queued its command.
type roomTimer struct {
	kind  timerKind
	t     Timer
	key   int
	gen   int
	armed bool
}

func (tm *roomTimer) stop() {
	if tm.t != nil {
		tm.t.Stop()
		tm.t = nil
	}
	tm.armed = false
}

func (tm *roomTimer) current(gen int) bool {
	return tm.armed && tm.gen == gen
}

// timerFired is the inbox command a roomTimer posts.
type timerFired struct {
	kind timerKind
	gen  int
}

func (r *Room) arm(tm *roomTimer, d time.Duration, key int) {
	tm.stop()
	if d <= 0 {
		return
	}
	tm.gen++
	tm.key = key
	tm.armed = true
	cmd := timerFired{kind: tm.kind, gen: tm.gen}
	tm.t = r.clock.AfterFunc(d, func() { r.enqueue(cmd) })
}

// keep arms tm for key unless it is already armed for it; want false stops
// it.
func (r *Room) keep(tm *roomTimer, want bool, d time.Duration, key int) {
	if !want {
		tm.stop()
		return
	}
	if tm.armed && tm.key == key {
		return
	}
	r.arm(tm, d, key)
}

// syncTimers aligns every timer with the current state. It runs after each
// command.
func (r *Room) syncTimers() {
	g := r.state.Snapshot()
	playing := g.Status == game.StatusPlaying

	pitchSeq := 0
	if g.PendingPitch != nil {
		pitchSeq = g.PendingPitch.Seq
	}
	r.keep(&r.pitchTimer, playing && g.PendingPitch != nil, r.cfg.PitchTimeout, pitchSeq)
	r.keep(&r.playTimer, playing && g.BallInPlay, r.cfg.PlayTimeout, g.PitchSeq)
	r.keep(&r.resetTimer, g.Status == game.StatusEnded, r.cfg.ResetDelay, r.resets)
	r.keep(&r.idleTimer, g.Status == game.StatusPaused, r.cfg.IdleTimeout, r.resets)
}

func (r *Room) timer(kind timerKind) *roomTimer {
	switch kind {
	case timerPitch:
		return &r.pitchTimer
	case timerPlay:
		return &r.playTimer
	case timerReset:
		return &r.resetTimer
	default:
		return &r.idleTimer
	}
}

func (r *Room) stopTimers() {
	r.pitchTimer.stop()
	r.playTimer.stop()
	r.resetTimer.stop()
	r.idleTimer.stop()
}
