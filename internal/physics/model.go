// Package physics is the default outcome helper for the room resolver: strike
// zone checks, pitch flight time, batted-ball trajectories and catch odds.
package physics

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yourusername/pitchside/internal/game"
)

const (
	moundDistanceFeet = 60.5
	mphToFeetPerSec   = 1.46667
	gravity           = 32.17 // ft/s^2
	dragFactor        = 0.55

	defaultSpeed          = 85.0
	defaultAnimationScale = 2.5
	foulLineDegrees       = 45.0
	fenceFeet             = 380.0

	// windows that map a swing error onto contact quality
	timingWindow   = 400 * time.Millisecond
	locationWindow = 0.5
)

// Model is a lightweight, seeded batted-ball model. The room server builds
// one per room; the lock only matters when a caller shares it.
type Model struct {
	mu             sync.Mutex
	rng            *rand.Rand
	animationScale float64
}

// New creates a model. A zero seed draws one from the runtime.
func New(seed uint64) *Model {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Model{
		rng:            rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		animationScale: defaultAnimationScale,
	}
}

var _ game.Physics = (*Model)(nil)

// InZone reports whether the pitch target is inside the -1..1 zone.
func (m *Model) InZone(p game.Pitch) bool {
	return math.Abs(p.Target.X) <= 1 && math.Abs(p.Target.Y) <= 1
}

// Arrival is the animated flight time from release to the plate. Clients
// render the pitch over the same duration.
func (m *Model) Arrival(p game.Pitch) time.Duration {
	speed := p.Speed
	if speed <= 0 {
		speed = defaultSpeed
	}
	seconds := moundDistanceFeet / (speed * mphToFeetPerSec) * m.animationScale
	return time.Duration(seconds * float64(time.Second))
}

// Trajectory turns a swing inside the tolerance window into a batted ball.
// Early swings pull the ball, late swings push it; swinging under the pitch
// lifts it.
func (m *Model) Trajectory(p game.Pitch, s game.Swing, timingError time.Duration, locationError float64) game.Trajectory {
	timingRatio := float64(timingError) / float64(timingWindow)
	quality := clamp(1-0.5*math.Abs(timingRatio)-locationError/locationWindow*0.5, 0, 1)

	speed := p.Speed
	if speed <= 0 {
		speed = defaultSpeed
	}
	exit := 55 + 50*quality + 0.1*speed + m.jitter(5)
	launch := 12 + (p.Target.Y-s.Location.Y)*40 + m.jitter(10)
	spray := timingRatio*50 + m.jitter(12)

	t := game.Trajectory{
		ExitVelocity: round1(exit),
		LaunchAngle:  round1(launch),
		SprayAngle:   round1(spray),
		Distance:     round1(carry(exit, launch)),
	}
	t.HitType = classify(t)
	return t
}

// CatchProbability weighs the batted-ball type against where the fielder is
// playing.
func (m *Model) CatchProbability(t game.Trajectory, pos game.Position) float64 {
	var base float64
	switch t.HitType {
	case game.HitFlyBall:
		base = 0.85
	case game.HitLineDrive:
		base = 0.45
	case game.HitGroundBall:
		base = 0.7
	default:
		return 0
	}

	outfield := isOutfielder(pos)
	deep := t.Distance > 150
	if outfield != deep {
		base *= 0.3
	}
	if t.Distance > 330 {
		base *= 0.7
	}
	return clamp(base, 0, 1)
}

func (m *Model) jitter(amount float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (m.rng.Float64()*2 - 1) * amount
}

func classify(t game.Trajectory) game.HitType {
	switch {
	case math.Abs(t.SprayAngle) > foulLineDegrees:
		return game.HitFoul
	case t.LaunchAngle < 10:
		return game.HitGroundBall
	case t.Distance >= fenceFeet && t.LaunchAngle >= 20 && t.LaunchAngle <= 40:
		return game.HitHomeRun
	case t.LaunchAngle < 25:
		return game.HitLineDrive
	default:
		return game.HitFlyBall
	}
}

// carry is a drag-scaled projectile range for a ball leaving the bat.
func carry(exitMPH, launchDeg float64) float64 {
	if launchDeg <= 0 {
		return math.Max(exitMPH*0.9, 20)
	}
	v := exitMPH * mphToFeetPerSec
	rad := launchDeg * math.Pi / 180
	return v * v * math.Sin(2*rad) / gravity * dragFactor
}

func isOutfielder(pos game.Position) bool {
	switch pos {
	case game.PosLeftField, game.PosCenterField, game.PosRightField:
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
