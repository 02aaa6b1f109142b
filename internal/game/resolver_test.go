package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhysics struct {
	zone    bool
	arrival time.Duration
	hit     HitType
	catch   float64
}

func (f *fakePhysics) InZone(Pitch) bool { return f.zone }

func (f *fakePhysics) Arrival(Pitch) time.Duration { return f.arrival }

func (f *fakePhysics) CatchProbability(Trajectory, Position) float64 { return f.catch }

func (f *fakePhysics) Trajectory(Pitch, Swing, time.Duration, float64) Trajectory {
	return Trajectory{HitType: f.hit, ExitVelocity: 95, LaunchAngle: 20, Distance: 260}
}

type harness struct {
	st   *State
	r    *Resolver
	phys *fakePhysics
	now  time.Time
	roll float64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		phys: &fakePhysics{zone: true, arrival: 500 * time.Millisecond, hit: HitGroundBall, catch: 0.5},
		now:  time.Unix(1_700_000_000, 0),
		roll: 0.9,
	}
	h.st = NewState(9)
	h.st.SetSeated(true)
	h.r = NewResolver(h.phys,
		WithClock(func() time.Time { return h.now }),
		WithRoller(func() float64 { return h.roll }),
		WithTolerance(100*time.Millisecond, 0.3),
	)
	return h
}

func (h *harness) pitch(t *testing.T) {
	t.Helper()
	_, err := h.r.Pitch(h.st, h.st.g.FieldingSide(), PitchParams{Kind: "fastball", Speed: 90})
	require.NoError(t, err)
}

// miss pitches and swings far too late.
func (h *harness) miss(t *testing.T) Outcome {
	t.Helper()
	h.pitch(t)
	h.now = h.now.Add(5 * time.Second)
	out, err := h.r.Swing(h.st, h.st.g.BattingSide(), Swing{})
	require.NoError(t, err)
	return out
}

func (h *harness) take(t *testing.T) Outcome {
	t.Helper()
	h.pitch(t)
	out, err := h.r.Swing(h.st, h.st.g.BattingSide(), Swing{Take: true})
	require.NoError(t, err)
	return out
}

// contact pitches and swings on time at the target.
func (h *harness) contact(t *testing.T) Outcome {
	t.Helper()
	h.pitch(t)
	h.now = h.now.Add(h.phys.arrival)
	out, err := h.r.Swing(h.st, h.st.g.BattingSide(), Swing{})
	require.NoError(t, err)
	return out
}

func TestResolver_RejectsWrongSideWithoutMutation(t *testing.T) {
	type action func(h *harness, side Side) error
	pitch := func(h *harness, side Side) error {
		_, err := h.r.Pitch(h.st, side, PitchParams{Speed: 80})
		return err
	}
	swing := func(h *harness, side Side) error {
		_, err := h.r.Swing(h.st, side, Swing{})
		return err
	}
	field := func(h *harness, side Side) error {
		_, err := h.r.Field(h.st, side, FieldParams{Action: FieldCatch, Position: PosShortstop})
		return err
	}
	run := func(h *harness, side Side) error {
		_, err := h.r.Run(h.st, side, 0, 1)
		return err
	}

	tests := []struct {
		name    string
		setup   func(t *testing.T, h *harness)
		act     action
		allowed func(g GameState) Side
	}{
		{"pitch", func(*testing.T, *harness) {}, pitch, GameState.FieldingSide},
		{"swing", func(t *testing.T, h *harness) { h.pitch(t) }, swing, GameState.BattingSide},
		{"field", func(t *testing.T, h *harness) { h.contact(t) }, field, GameState.FieldingSide},
		{"run", func(t *testing.T, h *harness) { h.contact(t) }, run, GameState.BattingSide},
	}

	for _, tt := range tests {
		for _, half := range []Half{HalfTop, HalfBottom} {
			t.Run(tt.name+"/"+string(half), func(t *testing.T) {
				h := newHarness(t)
				h.st.g.Half = half
				tt.setup(t, h)

				allowed := tt.allowed(h.st.Snapshot())
				for _, side := range []Side{SideHome, SideAway, SideSpectator} {
					if side == allowed {
						continue
					}
					before := h.st.Snapshot()
					err := tt.act(h, side)
					assert.ErrorIs(t, err, ErrUnauthorized, "side %s", side)
					assert.Equal(t, before, h.st.Snapshot(), "side %s mutated state", side)
				}
			})
		}
	}
}

func TestResolver_SwingWithoutPitchIsInvalidSequence(t *testing.T) {
	h := newHarness(t)
	before := h.st.Snapshot()

	_, err := h.r.Swing(h.st, SideAway, Swing{})

	assert.ErrorIs(t, err, ErrInvalidSequence)
	assert.Equal(t, before, h.st.Snapshot())
}

func TestResolver_PitchWhilePendingIsInvalidSequence(t *testing.T) {
	h := newHarness(t)
	h.pitch(t)

	_, err := h.r.Pitch(h.st, SideHome, PitchParams{Speed: 90})
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestResolver_PitchRecordsServerTimestamp(t *testing.T) {
	h := newHarness(t)

	out, err := h.r.Pitch(h.st, SideHome, PitchParams{Kind: "slider", Speed: 84, Target: Location{X: 0.5, Y: -0.2}})
	require.NoError(t, err)
	assert.Equal(t, PlayPitch, out.Play)

	g := h.st.Snapshot()
	require.NotNil(t, g.PendingPitch)
	assert.Equal(t, h.now, g.PendingPitch.ThrownAt)
	assert.Equal(t, 1, g.PendingPitch.Seq)
	assert.Equal(t, "slider", g.PendingPitch.Kind)
}

func TestResolver_StrikeoutScenario(t *testing.T) {
	h := newHarness(t)

	for strikeout := 1; strikeout <= 2; strikeout++ {
		assert.Equal(t, PlayStrike, h.miss(t).Play)
		assert.Equal(t, PlayStrike, h.miss(t).Play)
		out := h.miss(t)
		assert.Equal(t, PlayStrikeout, out.Play)

		g := h.st.Snapshot()
		assert.Equal(t, strikeout, g.Count.Outs)
		assert.Equal(t, 0, g.Count.Strikes)
		assert.Equal(t, 0, g.Count.Balls)
		assert.Equal(t, HalfTop, g.Half)
	}

	h.st.setBases(Bases{true, false, true})
	h.miss(t)
	h.miss(t)
	out := h.miss(t)
	assert.Equal(t, PlayStrikeout, out.Play)
	assert.True(t, out.InningEnded)

	g := h.st.Snapshot()
	assert.Equal(t, 0, g.Count.Outs)
	assert.Equal(t, Bases{}, g.Bases)
	assert.Equal(t, HalfBottom, g.Half)
	assert.Equal(t, 1, g.Inning)
}

func TestResolver_CountBoundsHoldForNonContactSequences(t *testing.T) {
	h := newHarness(t)
	h.st.g.MaxInnings = 1000
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		h.phys.zone = rng.IntN(2) == 0
		if rng.IntN(2) == 0 {
			h.take(t)
		} else {
			h.miss(t)
		}
		g := h.st.Snapshot()
		require.LessOrEqual(t, g.Count.Balls, 3)
		require.LessOrEqual(t, g.Count.Strikes, 2)
		require.LessOrEqual(t, g.Count.Outs, 2)
	}
}

func TestResolver_FourthBallIsWalkWithForcedRunners(t *testing.T) {
	h := newHarness(t)
	h.phys.zone = false
	h.st.setBases(Bases{true, true, true})

	for i := 0; i < 3; i++ {
		assert.Equal(t, PlayBall, h.take(t).Play)
	}
	out := h.take(t)

	assert.Equal(t, PlayWalk, out.Play)
	assert.Equal(t, 1, out.Runs)
	g := h.st.Snapshot()
	assert.Equal(t, Bases{true, true, true}, g.Bases)
	assert.Equal(t, 1, g.Score.Away)
	assert.Equal(t, Count{}, g.Count)
}

func TestForceAdvance(t *testing.T) {
	tests := []struct {
		in   Bases
		out  Bases
		runs int
	}{
		{Bases{}, Bases{true, false, false}, 0},
		{Bases{false, true, false}, Bases{true, true, false}, 0},
		{Bases{true, false, true}, Bases{true, true, true}, 0},
		{Bases{true, true, false}, Bases{true, true, true}, 0},
		{Bases{true, true, true}, Bases{true, true, true}, 1},
	}
	for _, tt := range tests {
		got, runs := forceAdvance(tt.in)
		assert.Equal(t, tt.out, got)
		assert.Equal(t, tt.runs, runs)
	}
}

func TestResolver_FoulWithTwoStrikesKeepsCount(t *testing.T) {
	h := newHarness(t)
	h.phys.hit = HitFoul
	h.miss(t)
	h.miss(t)

	out := h.contact(t)

	assert.Equal(t, PlayFoul, out.Play)
	g := h.st.Snapshot()
	assert.Equal(t, 2, g.Count.Strikes)
	assert.False(t, g.BallInPlay)
	assert.Nil(t, g.PendingPitch)
}

func TestResolver_WalkOffHomeRun(t *testing.T) {
	h := newHarness(t)
	h.st.g.Inning = 9
	h.st.g.Half = HalfBottom
	h.st.g.Score = Score{Home: 3, Away: 3}
	h.st.setBases(Bases{true, false, true})
	h.phys.hit = HitHomeRun

	out := h.contact(t)

	assert.Equal(t, PlayHomeRun, out.Play)
	assert.Equal(t, 3, out.Runs)
	assert.True(t, out.GameEnded)
	assert.Equal(t, SideHome, out.Winner)
	g := h.st.Snapshot()
	assert.Equal(t, 6, g.Score.Home)
	assert.Equal(t, Bases{}, g.Bases)
	assert.Equal(t, StatusEnded, g.Status)
	assert.Equal(t, 0, g.Count.Outs)

	_, err := h.r.Pitch(h.st, SideAway, PitchParams{Speed: 90})
	assert.ErrorIs(t, err, ErrGameAlreadyEnded)
}

func TestResolver_HomeRunBeforeLastInningDoesNotEndGame(t *testing.T) {
	h := newHarness(t)
	h.st.g.Inning = 4
	h.st.g.Half = HalfBottom
	h.phys.hit = HitHomeRun

	out := h.contact(t)

	assert.False(t, out.GameEnded)
	assert.Equal(t, 1, h.st.Snapshot().Score.Home)
	assert.Equal(t, StatusPlaying, h.st.Status())
}

func TestResolver_HomeLeadingAfterTopOfLastInningEndsGame(t *testing.T) {
	h := newHarness(t)
	h.st.g.Inning = 9
	h.st.g.Score = Score{Home: 2, Away: 1}
	h.st.g.Count.Outs = 2
	h.miss(t)
	h.miss(t)

	out := h.miss(t)

	assert.True(t, out.InningEnded)
	assert.True(t, out.GameEnded)
	assert.Equal(t, SideHome, out.Winner)
	assert.Equal(t, StatusEnded, h.st.Status())
}

func TestResolver_LastHalfInningEndsGameEvenWhenTied(t *testing.T) {
	h := newHarness(t)
	h.st.g.MaxInnings = 3
	h.st.g.Inning = 3
	h.st.g.Half = HalfBottom
	h.st.g.Score = Score{Home: 1, Away: 1}
	h.st.g.Count.Outs = 2
	h.miss(t)
	h.miss(t)

	out := h.miss(t)

	assert.True(t, out.GameEnded)
	assert.Equal(t, Side(""), out.Winner)
	g := h.st.Snapshot()
	assert.Equal(t, 4, g.Inning)
	assert.Equal(t, StatusEnded, g.Status)
}

func TestResolver_BallInPlayRunsScore(t *testing.T) {
	h := newHarness(t)
	h.st.setBases(Bases{false, false, true})

	out := h.contact(t)
	require.Equal(t, PlayHit, out.Play)
	g := h.st.Snapshot()
	require.True(t, g.BallInPlay)
	assert.Equal(t, 0, g.BatterRunner)

	out, err := h.r.Run(h.st, SideAway, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, PlayRunScored, out.Play)
	assert.Equal(t, 1, h.st.Snapshot().Score.Away)
	assert.False(t, h.st.Snapshot().Bases[2])

	out, err = h.r.Run(h.st, SideAway, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, PlayAdvance, out.Play)
	g = h.st.Snapshot()
	assert.Equal(t, Bases{false, true, false}, g.Bases)
	assert.Equal(t, 2, g.BatterRunner)

	_, err = h.r.Run(h.st, SideAway, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidSequence)
	_, err = h.r.Run(h.st, SideAway, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestResolver_RunRequiresBallInPlay(t *testing.T) {
	h := newHarness(t)
	h.st.setBases(Bases{true, false, false})

	_, err := h.r.Run(h.st, SideAway, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidSequence)
	_, err = h.r.Field(h.st, SideHome, FieldParams{Action: FieldCatch})
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestResolver_CatchRetiresBatterRunner(t *testing.T) {
	h := newHarness(t)
	h.phys.catch = 0.8
	h.roll = 0.1
	h.contact(t)
	_, err := h.r.Run(h.st, SideAway, 0, 1)
	require.NoError(t, err)

	out, err := h.r.Field(h.st, SideHome, FieldParams{Action: FieldCatch, Position: PosCenterField})
	require.NoError(t, err)

	assert.Equal(t, PlayCatch, out.Play)
	assert.True(t, out.Caught)
	assert.Equal(t, 1, out.OutsRecorded)
	g := h.st.Snapshot()
	assert.False(t, g.BallInPlay)
	assert.Equal(t, Bases{}, g.Bases)
	assert.Equal(t, 1, g.Count.Outs)
}

func TestResolver_DroppedBallStaysLiveAndOnlyOneCatchAttempt(t *testing.T) {
	h := newHarness(t)
	h.phys.catch = 0.2
	h.roll = 0.7
	h.contact(t)

	out, err := h.r.Field(h.st, SideHome, FieldParams{Action: FieldCatch, Position: PosLeftField})
	require.NoError(t, err)
	assert.Equal(t, PlayDrop, out.Play)
	assert.True(t, h.st.Snapshot().BallInPlay)

	_, err = h.r.Field(h.st, SideHome, FieldParams{Action: FieldCatch, Position: PosLeftField})
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestResolver_ThrowTargetRetiresArrivingRunner(t *testing.T) {
	h := newHarness(t)
	h.contact(t)

	out, err := h.r.Field(h.st, SideHome, FieldParams{Action: FieldThrow, Position: PosShortstop, Base: 1})
	require.NoError(t, err)
	assert.Equal(t, PlayThrow, out.Play)
	assert.Equal(t, 1, h.st.Snapshot().ThrowTarget)

	out, err = h.r.Run(h.st, SideAway, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, PlayThrownOut, out.Play)
	g := h.st.Snapshot()
	assert.Equal(t, 1, g.Count.Outs)
	assert.Equal(t, Bases{}, g.Bases)
	assert.Equal(t, NoBatterRunner, g.BatterRunner)
	assert.Equal(t, 0, g.ThrowTarget)
}

func TestResolver_NoCatchAfterBatterThrownOut(t *testing.T) {
	h := newHarness(t)
	h.phys.catch = 0.8
	h.roll = 0.1
	h.contact(t)
	_, err := h.r.Field(h.st, SideHome, FieldParams{Action: FieldThrow, Position: PosShortstop, Base: 1})
	require.NoError(t, err)
	out, err := h.r.Run(h.st, SideAway, 0, 1)
	require.NoError(t, err)
	require.Equal(t, PlayThrownOut, out.Play)
	before := h.st.Snapshot()

	_, err = h.r.Field(h.st, SideHome, FieldParams{Action: FieldCatch, Position: PosCenterField})
	assert.ErrorIs(t, err, ErrInvalidSequence)
	assert.Equal(t, before, h.st.Snapshot())
	assert.Equal(t, 1, h.st.Snapshot().Count.Outs)
}

func TestResolver_NoCatchAfterBatterScored(t *testing.T) {
	h := newHarness(t)
	h.phys.catch = 0.8
	h.roll = 0.1
	h.contact(t)
	out, err := h.r.Run(h.st, SideAway, 0, 0)
	require.NoError(t, err)
	require.Equal(t, PlayRunScored, out.Play)

	_, err = h.r.Field(h.st, SideHome, FieldParams{Action: FieldCatch, Position: PosCenterField})
	assert.ErrorIs(t, err, ErrInvalidSequence)
	g := h.st.Snapshot()
	assert.Equal(t, 1, g.Score.Away)
	assert.Equal(t, 0, g.Count.Outs)
}

func TestResolver_RunnerCannotPassRunnerAhead(t *testing.T) {
	h := newHarness(t)
	h.st.setBases(Bases{true, false, false})
	h.contact(t)
	before := h.st.Snapshot()

	_, err := h.r.Run(h.st, SideAway, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidSequence)
	_, err = h.r.Run(h.st, SideAway, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)
	assert.Equal(t, before, h.st.Snapshot())

	_, err = h.r.Run(h.st, SideAway, 1, 3)
	require.NoError(t, err)
	out, err := h.r.Run(h.st, SideAway, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, PlayAdvance, out.Play)
	assert.Equal(t, Bases{false, true, true}, h.st.Snapshot().Bases)
}

func TestResolver_ReturnWithBatterAtHomeIsOut(t *testing.T) {
	h := newHarness(t)
	h.contact(t)

	out, err := h.r.Field(h.st, SideHome, FieldParams{Action: FieldReturn, Position: PosPitcher})
	require.NoError(t, err)

	assert.Equal(t, PlayReturn, out.Play)
	assert.Equal(t, 1, out.OutsRecorded)
	g := h.st.Snapshot()
	assert.False(t, g.BallInPlay)
	assert.Equal(t, 1, g.Count.Outs)
}

func TestResolver_DeadBallEndsPlayAndKeepsRunners(t *testing.T) {
	h := newHarness(t)
	h.contact(t)
	_, err := h.r.Run(h.st, SideAway, 0, 1)
	require.NoError(t, err)

	out, err := h.r.DeadBall(h.st)
	require.NoError(t, err)

	assert.True(t, out.Timeout)
	assert.Equal(t, 0, out.OutsRecorded)
	g := h.st.Snapshot()
	assert.False(t, g.BallInPlay)
	assert.Equal(t, Bases{true, false, false}, g.Bases)
}

func TestResolver_ExpirePitchActsAsTake(t *testing.T) {
	h := newHarness(t)
	h.phys.zone = false
	h.pitch(t)
	seq := h.st.Snapshot().PendingPitch.Seq

	_, err := h.r.ExpirePitch(h.st, seq+1)
	assert.ErrorIs(t, err, ErrInvalidSequence)

	out, err := h.r.ExpirePitch(h.st, seq)
	require.NoError(t, err)
	assert.Equal(t, PlayBall, out.Play)
	assert.True(t, out.Timeout)
	assert.Nil(t, h.st.Snapshot().PendingPitch)

	_, err = h.r.ExpirePitch(h.st, seq)
	assert.ErrorIs(t, err, ErrInvalidSequence)
}

func TestResolver_PausedRoomRejectsGameplay(t *testing.T) {
	h := newHarness(t)
	h.pitch(t)
	h.st.SetSeated(false)

	_, err := h.r.Swing(h.st, SideAway, Swing{})
	assert.ErrorIs(t, err, ErrGamePaused)

	h.st.SetSeated(true)
	_, err = h.r.Swing(h.st, SideAway, Swing{Take: true})
	assert.NoError(t, err)
}

func TestOutcome_AtBatComplete(t *testing.T) {
	assert.True(t, Outcome{Play: PlayStrikeout}.AtBatComplete())
	assert.True(t, Outcome{Play: PlayBall, GameEnded: true}.AtBatComplete())
	assert.False(t, Outcome{Play: PlayPitch}.AtBatComplete())
	assert.False(t, Outcome{Play: PlayThrow}.AtBatComplete())
}
