package ui

const maxChatMessages = 50

// ChatMessage represents a chat message
type ChatMessage struct {
	Sender  string
	Content string
	IsOwn   bool
}

// ChatPanel keeps the visible chat history.
type ChatPanel struct {
	messages []ChatMessage
}

// NewChatPanel creates a new chat panel
func NewChatPanel() *ChatPanel {
	return &ChatPanel{}
}

// AddMessage adds a message to the chat
func (c *ChatPanel) AddMessage(sender, content string, isOwn bool) {
	c.messages = append(c.messages, ChatMessage{
		Sender:  sender,
		Content: content,
		IsOwn:   isOwn,
	})
	if len(c.messages) > maxChatMessages {
		c.messages = c.messages[len(c.messages)-maxChatMessages:]
	}
}

// Clear drops every message.
func (c *ChatPanel) Clear() {
	c.messages = nil
}

// GetMessages returns all messages
func (c *ChatPanel) GetMessages() []ChatMessage {
	return c.messages
}
