package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

const chatHistorySize = 50

// ChatMessage represents a stored chat message
type ChatMessage struct {
	ID        string
	From      string // display name at send time
	Side      game.Side
	Message   string
	Timestamp time.Time
}

// ChatManager keeps the recent chat of one room. It is owned by the room
// actor.
type ChatManager struct {
	messages []ChatMessage
	maxLen   int
}

// NewChatManager creates a chat history capping lines at maxLen runes.
func NewChatManager(maxLen int) *ChatManager {
	return &ChatManager{maxLen: maxLen}
}

// Post sanitizes and stores a line from p. ok is false when nothing is left
// after sanitizing.
func (cm *ChatManager) Post(p *Peer, text string, at time.Time) (ChatMessage, bool) {
	text = sanitizeChat(text, cm.maxLen)
	if text == "" {
		return ChatMessage{}, false
	}

	msg := ChatMessage{
		ID:        uuid.New().String(),
		From:      p.Name,
		Side:      p.Side,
		Message:   text,
		Timestamp: at,
	}
	cm.messages = append(cm.messages, msg)
	if len(cm.messages) > chatHistorySize {
		cm.messages = cm.messages[len(cm.messages)-chatHistorySize:]
	}
	return msg, true
}

// History returns the stored chat as wire messages, oldest first.
func (cm *ChatManager) History() []protocol.ChatMessage {
	out := make([]protocol.ChatMessage, len(cm.messages))
	for i, m := range cm.messages {
		out[i] = m.Wire()
	}
	return out
}

// Wire converts the stored message for the protocol.
func (m ChatMessage) Wire() protocol.ChatMessage {
	return protocol.ChatMessage{
		From:    m.From,
		Side:    m.Side,
		Message: m.Message,
		At:      m.Timestamp.UnixMilli(),
	}
}
