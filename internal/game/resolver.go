package game

import (
	"math/rand/v2"
	"time"
)

// Physics is the outcome helper consumed by the Resolver. Implementations
// must be pure apart from their own randomness.
type Physics interface {
	// InZone reports whether the pitch crosses the strike zone.
	InZone(p Pitch) bool
	// Arrival is the time between release and the pitch reaching the plate.
	Arrival(p Pitch) time.Duration
	// Trajectory summarizes the batted ball for a swing inside tolerance.
	Trajectory(p Pitch, s Swing, timingError time.Duration, locationError float64) Trajectory
	// CatchProbability is the chance, 0..1, that a fielder at pos catches t.
	CatchProbability(t Trajectory, pos Position) float64
}

// Play names the specific result of one applied action.
type Play string

const (
	PlayPitch        Play = "pitch"
	PlayBall         Play = "ball"
	PlayStrike       Play = "strike"
	PlayCalledStrike Play = "called-strike"
	PlayFoul         Play = "foul"
	PlayStrikeout    Play = "strikeout"
	PlayWalk         Play = "walk"
	PlayHit          Play = "hit"
	PlayHomeRun      Play = "home-run"
	PlayCatch        Play = "catch"
	PlayDrop         Play = "drop"
	PlayThrow        Play = "throw"
	PlayReturn       Play = "ball-returned"
	PlayAdvance      Play = "advance"
	PlayRunScored    Play = "run-scored"
	PlayThrownOut    Play = "thrown-out"
)

// Outcome describes what one successful action did to the state.
type Outcome struct {
	Play         Play
	Actor        Side
	Runs         int
	OutsRecorded int
	InningEnded  bool
	GameEnded    bool
	Winner       Side
	Timeout      bool
	Swung        bool
	InZone       bool
	TimingError  time.Duration
	Trajectory   *Trajectory
	Position     Position
	CatchChance  float64
	Caught       bool
	From         int
	To           int
	Base         int
}

// AtBatComplete reports whether the outcome finished a plate appearance or
// retired or scored a runner, which is what the analytics sink records.
func (o Outcome) AtBatComplete() bool {
	switch o.Play {
	case PlayStrikeout, PlayWalk, PlayHit, PlayHomeRun, PlayCatch, PlayRunScored, PlayThrownOut:
		return true
	}
	return o.GameEnded
}

// Resolver validates inbound actions against the state and applies them.
type Resolver struct {
	physics           Physics
	now               func() time.Time
	roll              func() float64
	timingTolerance   time.Duration
	locationTolerance float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces the server clock used to time swings.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithRoller replaces the uniform 0..1 source used for catch attempts.
func WithRoller(roll func() float64) Option {
	return func(r *Resolver) { r.roll = roll }
}

// WithTolerance sets the swing timing and location windows.
func WithTolerance(timing time.Duration, location float64) Option {
	return func(r *Resolver) {
		if timing > 0 {
			r.timingTolerance = timing
		}
		if location > 0 {
			r.locationTolerance = location
		}
	}
}

// NewResolver creates a Resolver backed by the given physics helper.
func NewResolver(physics Physics, opts ...Option) *Resolver {
	r := &Resolver{
		physics:           physics,
		now:               time.Now,
		roll:              rand.Float64,
		timingTolerance:   400 * time.Millisecond,
		locationTolerance: 0.35,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// authorize checks status and turn ownership. Wrong side is always reported
// as unauthorized, before any sequence check.
func (r *Resolver) authorize(st *State, side, want Side) error {
	switch st.g.Status {
	case StatusEnded:
		return ErrGameAlreadyEnded
	case StatusWaiting, StatusPaused:
		return ErrGamePaused
	}
	if side != want {
		return ErrUnauthorized
	}
	return nil
}

// Pitch records a pitch from the fielding side.
func (r *Resolver) Pitch(st *State, side Side, params PitchParams) (Outcome, error) {
	if err := r.authorize(st, side, st.g.FieldingSide()); err != nil {
		return Outcome{}, err
	}
	if st.g.BallInPlay {
		return Outcome{}, sequenceError("ball is still in play")
	}
	if st.g.PendingPitch != nil {
		return Outcome{}, sequenceError("previous pitch has not been answered")
	}

	st.recordPitch(Pitch{
		Kind:     params.Kind,
		Speed:    params.Speed,
		Target:   params.Target,
		ThrownAt: r.now(),
	})
	return Outcome{Play: PlayPitch, Actor: side}, nil
}

// Swing resolves the batting side's decision on the pending pitch.
func (r *Resolver) Swing(st *State, side Side, sw Swing) (Outcome, error) {
	if err := r.authorize(st, side, st.g.BattingSide()); err != nil {
		return Outcome{}, err
	}
	if st.g.PendingPitch == nil {
		return Outcome{}, sequenceError("no pitch to swing at")
	}

	p := *st.g.PendingPitch
	out := Outcome{Actor: side, Swung: !sw.Take, InZone: r.physics.InZone(p)}
	if sw.Take {
		r.callPitch(st, &out)
		return out, nil
	}

	elapsed := r.now().Sub(p.ThrownAt)
	out.TimingError = elapsed - r.physics.Arrival(p)
	locErr := sw.Location.Distance(p.Target)
	if absDuration(out.TimingError) > r.timingTolerance || locErr > r.locationTolerance {
		r.callPitch(st, &out)
		return out, nil
	}

	traj := r.physics.Trajectory(p, sw, out.TimingError, locErr)
	out.Trajectory = &traj
	st.clearPitch()

	switch traj.HitType {
	case HitFoul:
		out.Play = PlayFoul
		if st.g.Count.Strikes < 2 {
			st.incrementCount(countStrike)
		}
	case HitHomeRun:
		out.Play = PlayHomeRun
		out.Runs = 1 + st.g.Bases.Occupied()
		st.setBases(Bases{})
		st.resetAtBat()
		st.g.LastHit = &traj
		r.score(st, &out)
	default:
		out.Play = PlayHit
		st.resetAtBat()
		st.setBallInPlay(true, &traj)
	}
	return out, nil
}

// ExpirePitch resolves an unanswered pitch as a take. seq must match the
// pending pitch so a stale timer cannot resolve a newer pitch.
func (r *Resolver) ExpirePitch(st *State, seq int) (Outcome, error) {
	if st.g.Status != StatusPlaying {
		return Outcome{}, ErrGamePaused
	}
	if st.g.PendingPitch == nil || st.g.PendingPitch.Seq != seq {
		return Outcome{}, sequenceError("pitch already resolved")
	}
	out := Outcome{Actor: st.g.BattingSide(), Timeout: true, InZone: r.physics.InZone(*st.g.PendingPitch)}
	r.callPitch(st, &out)
	return out, nil
}

// callPitch applies a ball or strike for a pitch that was not put in play.
func (r *Resolver) callPitch(st *State, out *Outcome) {
	st.clearPitch()
	if out.InZone {
		if st.g.Count.Strikes+1 >= 3 {
			out.Play = PlayStrikeout
			st.resetAtBat()
			r.recordOut(st, out)
			return
		}
		st.incrementCount(countStrike)
		out.Play = PlayCalledStrike
		if out.Swung {
			out.Play = PlayStrike
		}
		return
	}

	if st.g.Count.Balls+1 >= 4 {
		out.Play = PlayWalk
		st.resetAtBat()
		bases, runs := forceAdvance(st.g.Bases)
		st.setBases(bases)
		out.Runs = runs
		r.score(st, out)
		return
	}
	st.incrementCount(countBall)
	out.Play = PlayBall
}

// forceAdvance puts the batter on first and pushes only the runners who are
// forced. A runner forced off third scores.
func forceAdvance(b Bases) (Bases, int) {
	if !b[0] {
		b[0] = true
		return b, 0
	}
	if !b[1] {
		b[1] = true
		return b, 0
	}
	if !b[2] {
		b[2] = true
		return b, 0
	}
	return b, 1
}

// Field applies a fielding play while the ball is live.
func (r *Resolver) Field(st *State, side Side, f FieldParams) (Outcome, error) {
	if err := r.authorize(st, side, st.g.FieldingSide()); err != nil {
		return Outcome{}, err
	}
	if !st.g.BallInPlay {
		return Outcome{}, sequenceError("no ball in play")
	}

	out := Outcome{Actor: side, Position: f.Position}
	switch f.Action {
	case FieldCatch:
		if st.g.BatterRunner == NoBatterRunner {
			return Outcome{}, sequenceError("batter is already retired or scored")
		}
		if st.g.catchAttempted {
			return Outcome{}, sequenceError("catch already attempted on this ball")
		}
		st.g.catchAttempted = true
		if st.g.LastHit != nil {
			out.CatchChance = r.physics.CatchProbability(*st.g.LastHit, f.Position)
		}
		if r.roll() >= out.CatchChance {
			out.Play = PlayDrop
			return out, nil
		}
		out.Play = PlayCatch
		out.Caught = true
		if br := st.g.BatterRunner; br >= 1 && br <= 3 {
			st.g.Bases[br-1] = false
		}
		st.setBallInPlay(false, nil)
		r.recordOut(st, &out)

	case FieldThrow:
		if f.Base < 1 || f.Base > HomePlate {
			return Outcome{}, sequenceError("throw target must be a base")
		}
		out.Play = PlayThrow
		out.Base = f.Base
		st.g.ThrowTarget = f.Base

	case FieldReturn:
		out.Play = PlayReturn
		stranded := st.g.BatterRunner == 0
		st.setBallInPlay(false, nil)
		if stranded {
			r.recordOut(st, &out)
		}

	default:
		return Outcome{}, sequenceError("unknown fielding action")
	}
	return out, nil
}

// DeadBall ends a live ball that nobody returned, with the same effect as a
// return by the fielding side.
func (r *Resolver) DeadBall(st *State) (Outcome, error) {
	if st.g.Status != StatusPlaying {
		return Outcome{}, ErrGamePaused
	}
	if !st.g.BallInPlay {
		return Outcome{}, sequenceError("no ball in play")
	}
	out := Outcome{Actor: st.g.FieldingSide(), Play: PlayReturn, Timeout: true}
	stranded := st.g.BatterRunner == 0
	st.setBallInPlay(false, nil)
	if stranded {
		r.recordOut(st, &out)
	}
	return out, nil
}

// Run moves a runner while the ball is live. from 0 is the batter-runner at
// home; to 0 or anything past third means home plate.
func (r *Resolver) Run(st *State, side Side, from, to int) (Outcome, error) {
	if err := r.authorize(st, side, st.g.BattingSide()); err != nil {
		return Outcome{}, err
	}
	if !st.g.BallInPlay {
		return Outcome{}, sequenceError("no ball in play")
	}

	switch {
	case from == 0:
		if st.g.BatterRunner != 0 {
			return Outcome{}, sequenceError("batter is not at home plate")
		}
	case from >= 1 && from <= 3:
		if !st.g.Bases[from-1] {
			return Outcome{}, sequenceError("no runner on that base")
		}
	default:
		return Outcome{}, sequenceError("unknown base")
	}
	if to == 0 || to > HomePlate {
		to = HomePlate
	}
	if to <= from {
		return Outcome{}, sequenceError("runners only advance")
	}
	if to < HomePlate && st.g.Bases[to-1] {
		return Outcome{}, sequenceError("base is occupied")
	}
	for base := from + 1; base < to && base <= 3; base++ {
		if st.g.Bases[base-1] {
			return Outcome{}, sequenceError("runner ahead blocks the path")
		}
	}

	out := Outcome{Actor: side, From: from, To: to}
	isBatter := st.g.BatterRunner == from
	if from >= 1 {
		st.g.Bases[from-1] = false
	}

	if st.g.ThrowTarget == to {
		st.g.ThrowTarget = 0
		if isBatter {
			st.g.BatterRunner = NoBatterRunner
		}
		out.Play = PlayThrownOut
		r.recordOut(st, &out)
		return out, nil
	}

	if to == HomePlate {
		if isBatter {
			st.g.BatterRunner = NoBatterRunner
		}
		out.Play = PlayRunScored
		out.Runs = 1
		r.score(st, &out)
		return out, nil
	}

	st.g.Bases[to-1] = true
	if isBatter {
		st.g.BatterRunner = to
	}
	out.Play = PlayAdvance
	return out, nil
}

// score credits out.Runs to the batting side and checks for a walk-off.
func (r *Resolver) score(st *State, out *Outcome) {
	if out.Runs == 0 {
		return
	}
	st.addRun(st.g.BattingSide(), out.Runs)
	if st.g.Half == HalfBottom && st.g.Inning >= st.g.MaxInnings && st.g.Score.Home > st.g.Score.Away {
		r.finish(st, out)
	}
}

// recordOut adds an out and, on the third, runs the half-inning transition and
// the end-of-game checks.
func (r *Resolver) recordOut(st *State, out *Outcome) {
	out.OutsRecorded++
	if st.incrementCount(countOut) < 3 {
		return
	}

	completed, inning := st.g.Half, st.g.Inning
	st.advanceHalfInning()
	out.InningEnded = true

	if inning < st.g.MaxInnings {
		return
	}
	if completed == HalfTop && st.g.Score.Home > st.g.Score.Away {
		r.finish(st, out)
		return
	}
	if completed == HalfBottom {
		r.finish(st, out)
	}
}

func (r *Resolver) finish(st *State, out *Outcome) {
	var winner Side
	switch {
	case st.g.Score.Home > st.g.Score.Away:
		winner = SideHome
	case st.g.Score.Away > st.g.Score.Home:
		winner = SideAway
	}
	st.endGame(winner)
	out.GameEnded = true
	out.Winner = winner
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
