package core

import (
	"sync"
	"time"
)

// State describes the lifecycle of a conversation.
type State int

const (
	// StateIdle means no query has been processed yet.
	StateIdle State = iota
	// StateRunning means a turn is currently being processed.
	StateRunning
	// StateDone means the last query completed normally.
	StateDone
	// StateFailed means the last query aborted with an upstream error.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Conversation is the ordered message history of one investigation session.
// It is owned by a single agent driver which is the only writer; messages are
// append-only and never mutated after being added. Reads are safe from other
// goroutines.
type Conversation struct {
	mu       sync.RWMutex
	messages []Content
	turns    int
	state    State
	created  time.Time
	updated  time.Time
}

// NewConversation creates an empty conversation in the idle state.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{created: now, updated: now}
}

// Append adds a message to the history.
func (c *Conversation) Append(msg Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	c.updated = time.Now()
}

// Messages returns a defensive copy of the full history.
func (c *Conversation) Messages() []Content {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Content, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// BeginTurn increments the turn counter and returns its new value.
func (c *Conversation) BeginTurn() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns++
	c.updated = time.Now()
	return c.turns
}

// Turns returns the number of turns processed so far.
func (c *Conversation) Turns() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.turns
}

// SetState transitions the conversation lifecycle state.
func (c *Conversation) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.updated = time.Now()
}

// GetState returns the current lifecycle state.
func (c *Conversation) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Reset clears the history, turn counter and state so the owning driver can
// start a fresh session.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.turns = 0
	c.state = StateIdle
	c.updated = time.Now()
}
