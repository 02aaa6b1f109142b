package connection

import (
	"fmt"
	"sync"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

const maxChatLines = 50

// State is the client's read-only mirror of the room. It only ever changes
// by applying messages from the server.
type State struct {
	mu    sync.RWMutex
	game  game.GameState
	you   protocol.PeerInfo
	peers []protocol.PeerInfo
	chat  []protocol.ChatMessage
}

// NewState creates an empty mirror.
func NewState() *State {
	return &State{}
}

// Game returns the last snapshot received.
func (s *State) Game() game.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.game
}

// You returns our own seat.
func (s *State) You() protocol.PeerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.you
}

// Peers returns a copy of the peer list.
func (s *State) Peers() []protocol.PeerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.PeerInfo(nil), s.peers...)
}

// Chat returns a copy of the chat log.
func (s *State) Chat() []protocol.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.ChatMessage(nil), s.chat...)
}

// Apply folds one server message into the mirror and returns the events it
// produced.
func (s *State) Apply(env protocol.Envelope) ([]Event, error) {
	snap, err := env.GameState()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []Event
	switch env.Type {
	case protocol.MsgConnected:
		var p protocol.ConnectedPayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		s.you = p.You
		s.peers = p.Peers
		events = append(events,
			ConnectedEvent{RoomID: p.RoomID, You: p.You},
			PeersEvent{Peers: s.copyPeers()},
		)

	case protocol.MsgPlayerJoined:
		var p protocol.PlayerJoinedPayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		s.upsertPeer(p.Peer)
		text := p.Peer.DisplayName + " joined as " + string(p.Peer.Side)
		if p.Renamed {
			text = "now playing as " + p.Peer.DisplayName
		}
		events = append(events, PeersEvent{Peers: s.copyPeers()}, PlayEvent{Type: env.Type, Text: text})

	case protocol.MsgPlayerLeft:
		var p protocol.PlayerLeftPayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		s.removePeer(p.Peer.ConnectionID)
		if p.NewHost != "" {
			for i := range s.peers {
				s.peers[i].IsHost = s.peers[i].ConnectionID == p.NewHost
			}
			if s.you.ConnectionID == p.NewHost {
				s.you.IsHost = true
			}
		}
		events = append(events, PeersEvent{Peers: s.copyPeers()}, PlayEvent{Type: env.Type, Text: p.Peer.DisplayName + " left"})

	case protocol.MsgChat:
		var m protocol.ChatMessage
		if err := env.Bind(&m); err != nil {
			return nil, err
		}
		s.chat = append(s.chat, m)
		if len(s.chat) > maxChatLines {
			s.chat = s.chat[len(s.chat)-maxChatLines:]
		}
		events = append(events, ChatEvent{Messages: []protocol.ChatMessage{m}})

	case protocol.MsgSyncResponse:
		var p protocol.SyncResponsePayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		s.you = p.You
		s.peers = p.Peers
		s.chat = p.Chat
		events = append(events, PeersEvent{Peers: s.copyPeers()}, ChatEvent{Messages: p.Chat, Replace: true})

	case protocol.MsgActionRejected:
		var p protocol.RejectedPayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		events = append(events, RejectedEvent{Reason: p.Reason, Message: p.Message, Action: p.Action})

	case protocol.MsgGameReset:
		var p protocol.GameResetPayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		events = append(events, PlayEvent{Type: env.Type, Text: "new game (" + p.Reason + ")"})

	case protocol.MsgPong:

	default:
		var p protocol.PlayPayload
		if err := env.Bind(&p); err != nil {
			return nil, err
		}
		events = append(events, PlayEvent{Type: env.Type, Text: Describe(env.Type, p)})
	}

	if snap != nil {
		s.game = *snap
		events = append(events, GameStateEvent{State: *snap})
	}
	return events, nil
}

func (s *State) copyPeers() []protocol.PeerInfo {
	return append([]protocol.PeerInfo(nil), s.peers...)
}

func (s *State) upsertPeer(p protocol.PeerInfo) {
	if p.ConnectionID == s.you.ConnectionID {
		s.you = p
	}
	for i := range s.peers {
		if s.peers[i].ConnectionID == p.ConnectionID {
			s.peers[i] = p
			return
		}
	}
	s.peers = append(s.peers, p)
}

func (s *State) removePeer(id string) {
	for i := range s.peers {
		if s.peers[i].ConnectionID == id {
			s.peers = append(s.peers[:i], s.peers[i+1:]...)
			return
		}
	}
}

// Describe renders a play payload as one line for the event ticker.
func Describe(t protocol.MessageType, p protocol.PlayPayload) string {
	var text string
	switch p.Play {
	case game.PlayPitch:
		text = fmt.Sprintf("%s pitches", p.Actor)
		if p.Pitch != nil && p.Pitch.Kind != "" {
			text = fmt.Sprintf("%s throws a %s", p.Actor, p.Pitch.Kind)
		}
	case game.PlayHit, game.PlayHomeRun:
		text = string(p.Play)
		if p.Trajectory != nil {
			text = fmt.Sprintf("%s, %s %.0f ft", p.Play, p.Trajectory.HitType, p.Trajectory.Distance)
		}
	case game.PlayCatch:
		text = fmt.Sprintf("caught by %s", p.Position)
	case game.PlayDrop:
		text = fmt.Sprintf("dropped by %s", p.Position)
	case game.PlayThrow:
		text = fmt.Sprintf("throw to base %d", p.Base)
	case game.PlayAdvance:
		text = fmt.Sprintf("runner to base %d", p.To)
	case game.PlayRunScored:
		text = "run scores"
	case game.PlayThrownOut:
		text = fmt.Sprintf("runner out at base %d", p.To)
	default:
		text = string(p.Play)
	}
	if p.Timeout {
		text += " (time)"
	}
	if p.Runs > 1 {
		text += fmt.Sprintf(", %d runs", p.Runs)
	}

	switch t {
	case protocol.MsgGameEnded:
		if p.Winner == "" {
			return text + ", game over: tie"
		}
		return text + ", game over: " + string(p.Winner) + " wins"
	case protocol.MsgInningEnded:
		return text + ", side retired"
	}
	return text
}
