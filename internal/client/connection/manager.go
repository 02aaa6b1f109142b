package connection

import (
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/pitchside/internal/logging"
	"github.com/yourusername/pitchside/internal/protocol"
)

// ErrNotConnected is returned when sending without a live connection.
var ErrNotConnected = errors.New("not connected")

// Manager manages the WebSocket connection to the server
type Manager struct {
	serverURL     string
	room          string
	name          string
	logger        *slog.Logger
	conn          *websocket.Conn
	state         *State
	eventCallback func(Event)
	connected     bool
	mu            sync.RWMutex
	writeMu       sync.Mutex
	done          chan struct{}
}

// NewManager creates a new connection manager for one room.
func NewManager(serverURL, room, name string, logger *slog.Logger) *Manager {
	return &Manager{
		serverURL: serverURL,
		room:      room,
		name:      name,
		logger:    logger,
		state:     NewState(),
		done:      make(chan struct{}),
	}
}

// OnEvent sets the callback for events
func (m *Manager) OnEvent(callback func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCallback = callback
}

// URL returns the websocket URL including the room and name.
func (m *Manager) URL() (string, error) {
	u, err := url.Parse(m.serverURL)
	if err != nil {
		return "", err
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	if m.room != "" {
		q.Set("room", m.room)
	}
	if m.name != "" {
		q.Set("name", m.name)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (m *Manager) Connect() error {
	target, err := m.URL()
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.Dial(target, nil)
	if err != nil {
		m.sendEvent(DisconnectedEvent{Error: err})
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.connected = true
	// fresh channel so a reconnect starts a new read pump
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.readPump()
	return nil
}

// Disconnect closes the WebSocket connection
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return
	}
	m.connected = false

	select {
	case <-m.done:
	default:
		close(m.done)
	}
	if m.conn != nil {
		m.writeMu.Lock()
		m.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		m.writeMu.Unlock()
		m.conn.Close()
	}
}

// IsConnected returns whether the manager is connected
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// State returns the read-only room mirror.
func (m *Manager) State() *State {
	return m.state
}

//// FROM CLIENT -> SERVER MESSAGES ////

// Pitch throws a pitch at target.
func (m *Manager) Pitch(kind string, speed float64, target protocol.Location) error {
	return m.sendMessage(protocol.MsgPitch, protocol.PitchPayload{Kind: kind, Speed: speed, Target: target})
}

// Swing offers at the pending pitch at loc.
func (m *Manager) Swing(loc protocol.Location) error {
	return m.sendMessage(protocol.MsgSwing, protocol.SwingPayload{Location: loc, Timestamp: time.Now().UnixMilli()})
}

// Take lets the pending pitch go by.
func (m *Manager) Take() error {
	return m.sendMessage(protocol.MsgSwing, protocol.SwingPayload{Take: true, Timestamp: time.Now().UnixMilli()})
}

// Catch attempts a catch with the fielder at position.
func (m *Manager) Catch(position string) error {
	return m.sendMessage(protocol.MsgField, protocol.FieldPayload{Action: "catch", Position: position})
}

// Throw throws the live ball to base (4 is home).
func (m *Manager) Throw(base int) error {
	return m.sendMessage(protocol.MsgField, protocol.FieldPayload{Action: "throw", Base: base})
}

// ReturnBall ends the live ball.
func (m *Manager) ReturnBall() error {
	return m.sendMessage(protocol.MsgField, protocol.FieldPayload{Action: "return"})
}

// Run moves a runner from one base to another; 0 is home plate.
func (m *Manager) Run(from, to int) error {
	return m.sendMessage(protocol.MsgRun, protocol.RunPayload{From: from, To: to})
}

// Chat sends a chat line to the room.
func (m *Manager) Chat(message string) error {
	return m.sendMessage(protocol.MsgChat, protocol.ChatPayload{Message: message})
}

// Rename changes our display name.
func (m *Manager) Rename(name string) error {
	return m.sendMessage(protocol.MsgJoin, protocol.JoinPayload{DisplayName: name})
}

// Sync asks the server for a full snapshot.
func (m *Manager) Sync() error {
	return m.sendMessage(protocol.MsgSyncRequest, nil)
}

////////////////////////////////////////////

// sendMessage sends a message to the server
func (m *Manager) sendMessage(msgType protocol.MessageType, payload any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected || m.conn == nil {
		return ErrNotConnected
	}

	msg, err := protocol.EncodeMessage(msgType, payload, nil, time.Now())
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return m.conn.WriteMessage(websocket.TextMessage, msg)
}

// readPump reads messages from the WebSocket connection
func (m *Manager) readPump() {
	var readErr error
	defer func() {
		m.mu.Lock()
		m.connected = false
		if m.conn != nil {
			m.conn.Close()
		}
		m.mu.Unlock()
		m.sendEvent(DisconnectedEvent{Error: readErr})
	}()

	for {
		select {
		case <-m.done:
			return
		default:
		}
		_, message, err := m.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				readErr = err
				logging.Warn(m.logger, "websocket read failed", logging.KeyError, err)
			}
			return
		}
		m.handleMessage(message)
	}
}

// handleMessage folds a server message into the mirror and forwards the
// resulting events.
func (m *Manager) handleMessage(data []byte) {
	env, err := protocol.DecodeMessage(data)
	if err != nil {
		logging.Warn(m.logger, "undecodable server message", logging.KeyError, err)
		return
	}
	events, err := m.state.Apply(env)
	if err != nil {
		logging.Warn(m.logger, "bad server message", logging.KeyMsgType, env.Type, logging.KeyError, err)
		return
	}
	for _, e := range events {
		m.sendEvent(e)
	}
}

// sendEvent sends an event to the callback if set
func (m *Manager) sendEvent(event Event) {
	m.mu.RLock()
	callback := m.eventCallback
	m.mu.RUnlock()

	if callback != nil {
		callback(event)
	}
}
