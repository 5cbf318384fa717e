// Package session holds the in-memory conversation history and its
// SQLite persistence.
package session

import (
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// Role constants for persisted messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// History is the conversation history handed to the assistant on each
// question. It is safe for concurrent use.
//
// The zero value is not useful; use NewHistory.
type History struct {
	mu       sync.RWMutex
	messages []*ai.Message
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{messages: make([]*ai.Message, 0)}
}

// SetMessages replaces all messages with a copy of the given slice. The
// store uses this when loading a session from the database.
func (h *History) SetMessages(messages []*ai.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]*ai.Message, len(messages))
	copy(h.messages, messages)
}

// Messages returns a copy of all messages.
func (h *History) Messages() []*ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]*ai.Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// Add appends one user question and the assistant's answer.
func (h *History) Add(userInput, assistantResponse string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages,
		ai.NewUserMessage(ai.NewTextPart(userInput)),
		ai.NewModelMessage(ai.NewTextPart(assistantResponse)),
	)
}

// Count returns the number of messages.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear removes all messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]*ai.Message, 0)
}
