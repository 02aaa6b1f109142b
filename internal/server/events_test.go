package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

func TestMessageFor(t *testing.T) {
	tests := []struct {
		name string
		out  game.Outcome
		want protocol.MessageType
	}{
		{"pitch", game.Outcome{Play: game.PlayPitch}, protocol.MsgPitchThrown},
		{"ball", game.Outcome{Play: game.PlayBall}, protocol.MsgSwingResult},
		{"foul", game.Outcome{Play: game.PlayFoul}, protocol.MsgSwingResult},
		{"strikeout", game.Outcome{Play: game.PlayStrikeout}, protocol.MsgStrikeout},
		{"walk", game.Outcome{Play: game.PlayWalk}, protocol.MsgWalk},
		{"home run", game.Outcome{Play: game.PlayHomeRun}, protocol.MsgBallHit},
		{"drop", game.Outcome{Play: game.PlayDrop}, protocol.MsgBallCaught},
		{"return", game.Outcome{Play: game.PlayReturn}, protocol.MsgBallThrown},
		{"thrown out", game.Outcome{Play: game.PlayThrownOut}, protocol.MsgRunnerAdvanced},
		{"run scored", game.Outcome{Play: game.PlayRunScored}, protocol.MsgRunScored},
		{"third out", game.Outcome{Play: game.PlayCatch, InningEnded: true}, protocol.MsgInningEnded},
		{"walk-off", game.Outcome{Play: game.PlayRunScored, GameEnded: true}, protocol.MsgGameEnded},
		{"final out", game.Outcome{Play: game.PlayStrikeout, InningEnded: true, GameEnded: true}, protocol.MsgGameEnded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageFor(tt.out))
		})
	}
}

func TestPayloadFor(t *testing.T) {
	g := game.GameState{Score: game.Score{Home: 3, Away: 2}, PendingPitch: &game.Pitch{Seq: 4}}

	p := payloadFor(game.Outcome{Play: game.PlayPitch, Actor: game.SideHome}, g, 1500*time.Millisecond)
	assert.Equal(t, int64(1500), p.ArrivalMs)
	assert.Equal(t, 4, p.Pitch.Seq)
	assert.Nil(t, p.InZone)

	p = payloadFor(game.Outcome{Play: game.PlayStrike, Swung: true, InZone: true, TimingError: -120 * time.Millisecond}, g, 0)
	assert.True(t, *p.InZone)
	assert.Equal(t, int64(-120), *p.TimingErrorMs)

	p = payloadFor(game.Outcome{Play: game.PlayRunScored, From: 3, To: 4, Runs: 1, GameEnded: true, Winner: game.SideHome}, g, 0)
	assert.Equal(t, 3, *p.From)
	assert.Equal(t, &game.Score{Home: 3, Away: 2}, p.Score)
	assert.Equal(t, game.SideHome, p.Winner)
	assert.Nil(t, p.Caught)
}

func TestEventLog_KeepsNewestInOrder(t *testing.T) {
	l := newEventLog(3)
	assert.Empty(t, l.list())

	for i := 0; i < 5; i++ {
		l.add(LogEntry{Type: protocol.MsgPitchThrown, Inning: i})
	}
	got := l.list()
	assert.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i+3, e.Seq)
		assert.Equal(t, i+2, e.Inning)
	}
}
