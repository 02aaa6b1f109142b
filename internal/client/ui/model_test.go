package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitchside/internal/client/connection"
	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

func newTestModel() Model {
	mgr := connection.NewManager("ws://127.0.0.1:1", "r1", "Ace", nil)
	return NewModel(mgr, "ws://127.0.0.1:1", "r1")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func apply(t *testing.T, m Model, e connection.Event) Model {
	t.Helper()
	next, cmd := m.Update(connectionEventMsg{event: e})
	assert.NotNil(t, cmd, "the model keeps listening")
	return next.(Model)
}

func TestCellLocation(t *testing.T) {
	assert.Equal(t, protocol.Location{X: -0.6, Y: 0.6}, cellLocation(1))
	assert.Equal(t, protocol.Location{}, cellLocation(5))
	assert.Equal(t, protocol.Location{X: 0.6, Y: -0.6}, cellLocation(9))
	assert.Equal(t, protocol.Location{}, cellLocation(42))
}

func TestFielderFor(t *testing.T) {
	tests := []struct {
		traj *game.Trajectory
		want string
	}{
		{nil, "P"},
		{&game.Trajectory{Distance: 300, SprayAngle: -30}, "LF"},
		{&game.Trajectory{Distance: 300, SprayAngle: 2}, "CF"},
		{&game.Trajectory{Distance: 300, SprayAngle: 30}, "RF"},
		{&game.Trajectory{Distance: 90, SprayAngle: -30}, "3B"},
		{&game.Trajectory{Distance: 90, SprayAngle: -5}, "SS"},
		{&game.Trajectory{Distance: 90, SprayAngle: 5}, "2B"},
		{&game.Trajectory{Distance: 90, SprayAngle: 35}, "1B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fielderFor(tt.traj))
	}
}

func TestLeadRunner(t *testing.T) {
	assert.Equal(t, 0, leadRunner(game.Bases{}))
	assert.Equal(t, 2, leadRunner(game.Bases{true, true, false}))
	assert.Equal(t, 3, leadRunner(game.Bases{false, false, true}))
}

func TestModel_ConnectionEvents(t *testing.T) {
	m := newTestModel()
	me := protocol.PeerInfo{ConnectionID: "me", DisplayName: "Ace", Side: game.SideHome}

	m = apply(t, m, connection.ConnectedEvent{RoomID: "r1", You: me})
	assert.Equal(t, ViewMainGame, m.viewState)

	m = apply(t, m, connection.GameStateEvent{State: game.GameState{Inning: 2, Half: game.HalfBottom, MaxInnings: 9}})
	assert.Equal(t, 2, m.game.Inning)

	for i := 0; i < maxTickerLines+2; i++ {
		m = apply(t, m, connection.PlayEvent{Type: protocol.MsgSwingResult, Text: "ball"})
	}
	assert.Len(t, m.ticker, maxTickerLines)

	m = apply(t, m, connection.ChatEvent{Messages: []protocol.ChatMessage{{From: "Ace", Message: "hi"}, {From: "Bo", Message: "yo"}}})
	require.Len(t, m.chat.GetMessages(), 2)
	assert.True(t, m.chat.GetMessages()[0].IsOwn)
	m = apply(t, m, connection.ChatEvent{Messages: []protocol.ChatMessage{{From: "Bo", Message: "gg"}}, Replace: true})
	assert.Len(t, m.chat.GetMessages(), 1)

	m = apply(t, m, connection.RejectedEvent{Reason: game.CodeGamePaused, Message: "waiting"})
	assert.Equal(t, "GamePaused: waiting", m.status)

	assert.Contains(t, m.View(), "ROOM r1")

	m = apply(t, m, connection.DisconnectedEvent{})
	assert.Equal(t, ViewLoading, m.viewState)
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel()
	m = apply(t, m, connection.ConnectedEvent{RoomID: "r1", You: protocol.PeerInfo{Side: game.SideHome}})

	m = press(t, m, "3")
	assert.Equal(t, 3, m.cell)

	m = press(t, m, "k")
	assert.Equal(t, 1, m.pitchKind)

	m = press(t, m, "p")
	assert.Contains(t, m.status, "not sent")

	m = press(t, m, "t")
	assert.True(t, m.throwing)
	m = press(t, m, "z")
	assert.False(t, m.throwing)
	assert.Equal(t, "throw cancelled", m.status)

	m = press(t, m, "a")
	assert.Equal(t, "no runner on base", m.status)

	m = press(t, m, "enter", "h", "i", " ", "y", "o")
	assert.True(t, m.chatInputActive)
	assert.Equal(t, "hi yo", m.chatInput)
	m = press(t, m, "esc")
	assert.False(t, m.chatInputActive)
	assert.Empty(t, m.chatInput)
}

func TestControlsFor(t *testing.T) {
	g := game.GameState{Half: game.HalfTop}
	assert.Contains(t, controlsFor(game.SideHome, g), "p pitch")
	assert.Contains(t, controlsFor(game.SideAway, g), "space swing")
	g.BallInPlay = true
	assert.Contains(t, controlsFor(game.SideHome, g), "c catch")
	assert.Contains(t, controlsFor(game.SideAway, g), "b run")
	assert.Contains(t, controlsFor(game.SideSpectator, g), "spectating")
}
