package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/logging"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second    //time allowed to read the next pong message from client
	pingPeriod     = (pongWait * 9) / 10 //send pings to client with this period. must be less than pongWait
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{ //upgrade HTTP connections to WebSocket connections
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // terminal clients send no Origin
	},
}

// Client represents a WebSocket client
type Client struct {
	ID      string
	Name    string
	room    *Room
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
}

// Server represents the WebSocket server
type Server struct {
	rooms   *RoomManager
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	history History
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHistory enables GET /rooms/{id}/history backed by h.
func WithHistory(h History) ServerOption {
	return func(s *Server) { s.history = h }
}

// NewServer creates a new WebSocket server
func NewServer(rooms *RoomManager, opts ...ServerOption) *Server {
	s := &Server{
		rooms:   rooms,
		cfg:     rooms.cfg,
		logger:  rooms.deps.Logger,
		metrics: rooms.deps.Metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWebSocket handles WebSocket connections. The room comes from the
// {room} path segment or the room query parameter.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if roomID == "" {
		roomID = r.URL.Query().Get("room")
	}
	roomID = sanitizeRoomID(roomID)

	room, err := s.rooms.Reserve(roomID)
	if err != nil {
		logging.Warn(s.logger, "connection refused", logging.KeyRoomID, roomID, logging.KeyReason, game.ReasonOf(err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.rooms.Release(room)
		logging.Warn(s.logger, "upgrade failed", logging.KeyRoomID, roomID, logging.KeyError, err)
		return
	}

	id := uuid.New().String()
	name := sanitizeName(r.URL.Query().Get("name"), s.cfg.MaxNameLength)
	if name == "" {
		name = "Player-" + id[:4]
	}

	client := &Client{
		ID:      id,
		Name:    name,
		room:    room,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst),
	}
	if !room.Join(NewPeer(id, name, client.send)) {
		s.rooms.Release(room)
		conn.Close()
		return
	}
	s.metrics.PeerConnected()

	go client.writePump()
	go client.readPump(s)
}

// readPump pumps messages from the WebSocket connection to the room
func (c *Client) readPump(s *Server) {
	defer func() {
		c.room.Leave(c.ID)
		s.rooms.Release(c.room)
		s.metrics.PeerDisconnected()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn(s.logger, "websocket read failed", logging.KeyConnID, c.ID, logging.KeyError, err)
			}
			break
		}

		env, err := protocol.DecodeMessage(message)
		if !c.limiter.Allow() {
			err = game.ErrRateLimited
		}
		c.room.Submit(c.ID, env, err)
	}
}

// writePump pumps messages from the room to the WebSocket connection, one
// frame per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the room closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
