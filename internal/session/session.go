// Package session keeps per-conversation history in memory so follow-up
// questions can reference earlier exchanges.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"coursemind/internal/logging"
)

// Exchange is one user question and the assistant's answer.
type Exchange struct {
	Question string
	Answer   string
}

// Manager stores conversation histories keyed by session id. Each
// session keeps at most maxHistory exchanges; older ones are dropped
// FIFO as new exchanges arrive.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string][]Exchange
	maxHistory int
}

// NewManager creates a session manager. maxHistory <= 0 disables
// history retention entirely.
func NewManager(maxHistory int) *Manager {
	return &Manager{
		sessions:   make(map[string][]Exchange),
		maxHistory: maxHistory,
	}
}

// Create allocates a new empty session and returns its id.
func (m *Manager) Create() string {
	id := uuid.NewString()

	m.mu.Lock()
	m.sessions[id] = nil
	m.mu.Unlock()

	logging.Session("Created session %s", id)
	return id
}

// AddExchange appends a completed question/answer pair to a session,
// creating the session if the id is unknown. The oldest exchange is
// evicted once the cap is reached.
func (m *Manager) AddExchange(id, question, answer string) {
	if id == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[id], Exchange{Question: question, Answer: answer})
	if m.maxHistory > 0 && len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	if m.maxHistory <= 0 {
		history = nil
	}
	m.sessions[id] = history
}

// History renders a session's exchanges for prompt injection. Returns
// "" for unknown or empty sessions.
func (m *Manager) History(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[id]
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history))
	for _, ex := range history {
		lines = append(lines, fmt.Sprintf("User: %s\nAssistant: %s", ex.Question, ex.Answer))
	}
	return strings.Join(lines, "\n")
}

// Clear removes a session and its history.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	logging.Session("Cleared session %s", id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
