package connection

import (
	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

// Event represents events from the connection manager
type Event interface {
	isEvent()
}

// ConnectedEvent is sent when the server greets us with our seat.
type ConnectedEvent struct {
	RoomID string
	You    protocol.PeerInfo
}

func (ConnectedEvent) isEvent() {}

// DisconnectedEvent is sent when connection is lost
type DisconnectedEvent struct {
	Error error
}

func (DisconnectedEvent) isEvent() {}

// RejectedEvent is sent when the server refused one of our messages.
type RejectedEvent struct {
	Reason  game.Code
	Message string
	Action  protocol.MessageType
}

func (RejectedEvent) isEvent() {}

// GameStateEvent is sent after the mirror took a new snapshot.
type GameStateEvent struct {
	State game.GameState
}

func (GameStateEvent) isEvent() {}

// PlayEvent describes one broadcast play, peer change or reset in words.
type PlayEvent struct {
	Type protocol.MessageType
	Text string
}

func (PlayEvent) isEvent() {}

// PeersEvent is sent when the peer list changed.
type PeersEvent struct {
	Peers []protocol.PeerInfo
}

func (PeersEvent) isEvent() {}

// ChatEvent carries new chat lines, or the full history after a sync.
type ChatEvent struct {
	Messages []protocol.ChatMessage
	Replace  bool
}

func (ChatEvent) isEvent() {}
