package model

import "time"

// ChatMessage is a broadcastable text event
type ChatMessage struct {
	Sender     PlayerID  `json:"sender"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`

	// Correct flags a message announcing a correct guess (sketch only)
	Correct bool `json:"correct,omitempty"`
	// System flags engine-generated announcements (joins, reveals)
	System bool `json:"system,omitempty"`
}

// ChatHistory is a bounded message log; when full, the oldest message is
// evicted first
type ChatHistory struct {
	capacity int
	messages []ChatMessage
}

// NewChatHistory creates a history holding at most capacity messages
func NewChatHistory(capacity int) ChatHistory {
	return ChatHistory{capacity: capacity}
}

// Append adds a message, evicting the oldest if at capacity
func (h *ChatHistory) Append(msg ChatMessage) {
	if h.capacity <= 0 {
		return
	}
	if len(h.messages) >= h.capacity {
		h.messages = h.messages[1:]
	}
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of the history in arrival order
func (h *ChatHistory) Messages() []ChatMessage {
	out := make([]ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of stored messages
func (h *ChatHistory) Len() int {
	return len(h.messages)
}

// Capacity returns the maximum number of stored messages
func (h *ChatHistory) Capacity() int {
	return h.capacity
}
