package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/pitchside/internal/client/connection"
	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

// ViewState represents the current view in the TUI
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewMainGame
)

const maxTickerLines = 8

// Model is the main Bubble Tea model
type Model struct {
	viewState ViewState
	connMgr   *connection.Manager   // Single connection manager, reused throughout session
	eventChan chan connection.Event // Channel for connection events

	width  int
	height int
	err    error

	// Loading screen
	loadingDots      int
	serverURL        string
	roomID           string
	reconnectAttempt int // Current reconnection attempt (0-5)
	maxReconnects    int
	waitingToRetry   bool

	// Mirror of the room, refreshed from connection events
	game  game.GameState
	you   protocol.PeerInfo
	peers []protocol.PeerInfo

	// Controls
	cell      int // 1-9 location grid cell, 5 is the middle
	pitchKind int
	throwing  bool // t was pressed, waiting for a base

	ticker []string
	status string

	// Chat system
	chat            *ChatPanel
	chatInput       string
	chatInputActive bool
}

// NewModel creates a new Bubble Tea model around a connection manager.
func NewModel(connMgr *connection.Manager, serverURL, roomID string) Model {
	eventChan := make(chan connection.Event, 64)

	// server events land on the channel and are read by listenForEventsCmd
	connMgr.OnEvent(func(event connection.Event) {
		eventChan <- event
	})

	return Model{
		viewState:     ViewLoading,
		connMgr:       connMgr,
		eventChan:     eventChan,
		width:         80,
		height:        24,
		serverURL:     serverURL,
		roomID:        roomID,
		maxReconnects: 5,
		cell:          5,
		chat:          NewChatPanel(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(m.connMgr),
		tickCmd(),
		listenForEventsCmd(m.eventChan),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.viewState {
		case ViewLoading:
			return m.updateLoading(msg)
		case ViewMainGame:
			return m.updateMainGame(msg)
		}

	case connectionSuccessMsg:
		m.reconnectAttempt = 0
		m.waitingToRetry = false
		m.err = nil
		return m, nil

	case connectionErrorMsg:
		m.err = msg.err
		m.reconnectAttempt++
		if m.reconnectAttempt < m.maxReconnects {
			m.waitingToRetry = true
			return m, tea.Batch(tickCmd(), retryConnectCmd(m.reconnectAttempt))
		}
		m.waitingToRetry = false
		return m, nil

	case retryMsg:
		if m.viewState == ViewLoading && m.reconnectAttempt < m.maxReconnects {
			m.waitingToRetry = false
			return m, connectCmd(m.connMgr)
		}
		return m, nil

	case connectionEventMsg:
		return m.handleConnectionEvent(msg.event)

	case tickMsg:
		if m.viewState == ViewLoading {
			m.loadingDots = (m.loadingDots + 1) % 4
			return m, tickCmd()
		}
		return m, nil
	}

	return m, nil
}

// View renders the current view
func (m Model) View() string {
	switch m.viewState {
	case ViewLoading:
		return m.viewLoading()
	case ViewMainGame:
		return m.viewMainGame()
	}
	return ""
}

// Disconnect safely disconnects the connection manager
func (m *Model) Disconnect() {
	if m.connMgr != nil {
		m.connMgr.Disconnect()
	}
}

// handleConnectionEvent folds one connection event into the model. Every
// branch keeps listening for the next event.
func (m Model) handleConnectionEvent(event connection.Event) (tea.Model, tea.Cmd) {
	listen := listenForEventsCmd(m.eventChan)

	switch e := event.(type) {
	case connection.ConnectedEvent:
		m.viewState = ViewMainGame
		m.you = e.You
		m.status = "joined " + e.RoomID + " as " + string(e.You.Side)

	case connection.DisconnectedEvent:
		// failed dials are retried through connectionErrorMsg
		wasPlaying := m.viewState == ViewMainGame
		m.viewState = ViewLoading
		m.err = e.Error
		if wasPlaying {
			m.reconnectAttempt = 0
			return m, tea.Batch(tickCmd(), retryConnectCmd(1), listen)
		}

	case connection.RejectedEvent:
		m.status = string(e.Reason) + ": " + e.Message

	case connection.GameStateEvent:
		m.game = e.State

	case connection.PeersEvent:
		m.peers = e.Peers
		for _, p := range e.Peers {
			if p.ConnectionID == m.you.ConnectionID {
				m.you = p
			}
		}

	case connection.PlayEvent:
		m.ticker = append(m.ticker, e.Text)
		if len(m.ticker) > maxTickerLines {
			m.ticker = m.ticker[len(m.ticker)-maxTickerLines:]
		}

	case connection.ChatEvent:
		if e.Replace {
			m.chat.Clear()
		}
		for _, c := range e.Messages {
			m.chat.AddMessage(c.From, c.Message, c.From == m.you.DisplayName)
		}
	}
	return m, listen
}
