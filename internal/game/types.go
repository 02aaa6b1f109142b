package game

import (
	"math"
	"time"
)

// Side identifies the team a peer plays for.
type Side string

const (
	SideHome      Side = "home"
	SideAway      Side = "away"
	SideSpectator Side = "spectator"
)

// IsPlayer reports whether the side competes (home or away).
func (s Side) IsPlayer() bool {
	return s == SideHome || s == SideAway
}

// Opponent returns the other competing side. Spectators have no opponent.
func (s Side) Opponent() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	}
	return ""
}

// Half is the portion of an inning. Top means the away side bats.
type Half string

const (
	HalfTop    Half = "top"
	HalfBottom Half = "bottom"
)

// Status is the room-level gameplay status carried in every snapshot.
type Status string

const (
	StatusWaiting Status = "waiting" // not both sides seated since the last reset
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused" // a player left mid-game
	StatusEnded   Status = "ended"
)

// Score holds runs per side.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Of returns the runs of the given side.
func (s Score) Of(side Side) int {
	if side == SideHome {
		return s.Home
	}
	if side == SideAway {
		return s.Away
	}
	return 0
}

// Count is balls, strikes and outs for the current half-inning.
type Count struct {
	Balls   int `json:"balls"`
	Strikes int `json:"strikes"`
	Outs    int `json:"outs"`
}

// Bases marks first, second and third as occupied.
type Bases [3]bool

// Occupied returns the number of runners on base.
func (b Bases) Occupied() int {
	n := 0
	for _, on := range b {
		if on {
			n++
		}
	}
	return n
}

// Location is a point relative to the center of the strike zone. The zone
// spans -1..1 on both axes.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between two locations.
func (l Location) Distance(o Location) float64 {
	return math.Hypot(l.X-o.X, l.Y-o.Y)
}

// Pitch is the record of the most recent pitch awaiting a swing decision.
type Pitch struct {
	Seq      int       `json:"seq"`
	Kind     string    `json:"kind"`
	Speed    float64   `json:"speed"` // mph
	Target   Location  `json:"target"`
	ThrownAt time.Time `json:"thrownAt"`
}

// PitchParams is what the fielding side supplies when pitching.
type PitchParams struct {
	Kind   string
	Speed  float64
	Target Location
}

// Swing is the batting side's decision on a pending pitch. Take means the
// batter did not offer at the pitch.
type Swing struct {
	Take     bool
	Location Location
}

// HitType classifies a batted ball.
type HitType string

const (
	HitFoul       HitType = "foul"
	HitGroundBall HitType = "ground-ball"
	HitLineDrive  HitType = "line-drive"
	HitFlyBall    HitType = "fly-ball"
	HitHomeRun    HitType = "home-run"
)

// Trajectory summarizes a batted ball as produced by the physics helper.
type Trajectory struct {
	HitType      HitType `json:"hitType"`
	ExitVelocity float64 `json:"exitVelocity"` // mph
	LaunchAngle  float64 `json:"launchAngle"`  // degrees
	SprayAngle   float64 `json:"sprayAngle"`   // degrees, 0 = straightaway center
	Distance     float64 `json:"distance"`     // feet
}

// Position is a fielder position.
type Position string

const (
	PosPitcher     Position = "P"
	PosCatcher     Position = "C"
	PosFirstBase   Position = "1B"
	PosSecondBase  Position = "2B"
	PosThirdBase   Position = "3B"
	PosShortstop   Position = "SS"
	PosLeftField   Position = "LF"
	PosCenterField Position = "CF"
	PosRightField  Position = "RF"
)

// FieldAction is the kind of fielding play.
type FieldAction string

const (
	FieldCatch  FieldAction = "catch"
	FieldThrow  FieldAction = "throw"
	FieldReturn FieldAction = "return"
)

// FieldParams is what the fielding side supplies while the ball is live.
type FieldParams struct {
	Action   FieldAction
	Position Position
	Base     int // throw target, 1..3 or 4 for home
}

// HomePlate is the base number used for scoring runs.
const HomePlate = 4

// NoBatterRunner marks that no batter-runner is on the field.
const NoBatterRunner = -1

// GameState is the canonical record of one room.
type GameState struct {
	Inning       int         `json:"inning"`
	Half         Half        `json:"half"`
	Score        Score       `json:"score"`
	Count        Count       `json:"count"`
	Bases        Bases       `json:"bases"`
	BallInPlay   bool        `json:"ballInPlay"`
	PendingPitch *Pitch      `json:"pendingPitch,omitempty"`
	Status       Status      `json:"status"`
	MaxInnings   int         `json:"maxInnings"`
	Winner       Side        `json:"winner,omitempty"`
	LastHit      *Trajectory `json:"lastHit,omitempty"`
	BatterRunner int         `json:"batterRunner"`
	ThrowTarget  int         `json:"throwTarget,omitempty"`
	PitchSeq     int         `json:"pitchSeq"`

	catchAttempted bool
}

// BattingSide returns the side at bat for the current half.
func (g GameState) BattingSide() Side {
	if g.Half == HalfTop {
		return SideAway
	}
	return SideHome
}

// FieldingSide returns the side in the field for the current half.
func (g GameState) FieldingSide() Side {
	return g.BattingSide().Opponent()
}
