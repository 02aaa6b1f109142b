package game

// DefaultMaxInnings is used when no maximum is configured.
const DefaultMaxInnings = 9

// State owns the authoritative GameState of one room. The exported methods are
// safe for the room owner to call; mutation primitives are unexported and used
// only by the Resolver. State is not safe for concurrent use: the room actor
// serializes every access.
type State struct {
	g      GameState
	seated bool
}

// NewState returns a state at the canonical start of a game.
func NewState(maxInnings int) *State {
	if maxInnings <= 0 {
		maxInnings = DefaultMaxInnings
	}
	s := &State{g: GameState{MaxInnings: maxInnings}}
	s.Reset()
	return s
}

// Snapshot returns a copy that shares no memory with the state.
func (s *State) Snapshot() GameState {
	g := s.g
	if s.g.PendingPitch != nil {
		p := *s.g.PendingPitch
		g.PendingPitch = &p
	}
	if s.g.LastHit != nil {
		t := *s.g.LastHit
		g.LastHit = &t
	}
	return g
}

// Reset reinitializes to inning 1, top, 0-0, empty bases and an empty count.
// Status is derived from whether both sides are currently seated.
func (s *State) Reset() {
	s.g = GameState{
		Inning:       1,
		Half:         HalfTop,
		MaxInnings:   s.g.MaxInnings,
		BatterRunner: NoBatterRunner,
		Status:       StatusWaiting,
	}
	if s.seated {
		s.g.Status = StatusPlaying
	}
}

// SetSeated records whether both home and away are occupied and moves the
// status between waiting, playing and paused accordingly. It returns true when
// the status changed.
func (s *State) SetSeated(seated bool) bool {
	s.seated = seated
	before := s.g.Status
	switch s.g.Status {
	case StatusWaiting, StatusPaused:
		if seated {
			s.g.Status = StatusPlaying
		}
	case StatusPlaying:
		if !seated {
			s.g.Status = StatusPaused
		}
	}
	return before != s.g.Status
}

// Status returns the current gameplay status.
func (s *State) Status() Status {
	return s.g.Status
}

func (s *State) recordPitch(p Pitch) {
	s.g.PitchSeq++
	p.Seq = s.g.PitchSeq
	s.g.PendingPitch = &p
}

func (s *State) clearPitch() {
	s.g.PendingPitch = nil
}

type countKind int

const (
	countBall countKind = iota
	countStrike
	countOut
)

// incrementCount bumps one counter and returns its new value. Callers handle
// the walk, strikeout and third-out transitions before the value can be
// observed outside the Resolver.
func (s *State) incrementCount(k countKind) int {
	switch k {
	case countBall:
		s.g.Count.Balls++
		return s.g.Count.Balls
	case countStrike:
		s.g.Count.Strikes++
		return s.g.Count.Strikes
	default:
		s.g.Count.Outs++
		return s.g.Count.Outs
	}
}

// resetAtBat clears balls and strikes for the next batter.
func (s *State) resetAtBat() {
	s.g.Count.Balls = 0
	s.g.Count.Strikes = 0
}

func (s *State) setBases(b Bases) {
	s.g.Bases = b
}

func (s *State) addRun(side Side, n int) {
	switch side {
	case SideHome:
		s.g.Score.Home += n
	case SideAway:
		s.g.Score.Away += n
	}
}

// setBallInPlay starts or ends a live ball. Ending clears every piece of
// play bookkeeping.
func (s *State) setBallInPlay(live bool, hit *Trajectory) {
	s.g.BallInPlay = live
	s.g.ThrowTarget = 0
	s.g.catchAttempted = false
	if live {
		s.g.LastHit = hit
		s.g.BatterRunner = 0
		return
	}
	s.g.BatterRunner = NoBatterRunner
}

// advanceHalfInning resets the count, clears the bases and flips the half in
// one step; bottom to top also advances the inning.
func (s *State) advanceHalfInning() {
	s.g.Count = Count{}
	s.g.Bases = Bases{}
	s.g.PendingPitch = nil
	s.setBallInPlay(false, nil)
	if s.g.Half == HalfTop {
		s.g.Half = HalfBottom
		return
	}
	s.g.Half = HalfTop
	s.g.Inning++
}

func (s *State) endGame(winner Side) {
	s.g.Status = StatusEnded
	s.g.Winner = winner
	s.g.PendingPitch = nil
	s.setBallInPlay(false, nil)
}
