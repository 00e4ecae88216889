package core

import (
	"context"
	"sync"
	"time"
)

// Thread is the ordered short-term message history of one session.
// It is safe for concurrent access.
type Thread struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewThread creates an empty thread.
func NewThread(id string) *Thread {
	now := time.Now()
	return &Thread{ID: id, Messages: []Message{}, Created: now, Updated: now}
}

// Add appends messages and trims the oldest ones beyond maxLen (0 = unbounded).
func (t *Thread) Add(maxLen int, msgs ...Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = append(t.Messages, msgs...)
	if maxLen > 0 && len(t.Messages) > maxLen {
		t.Messages = append([]Message(nil), t.Messages[len(t.Messages)-maxLen:]...)
	}
	t.Updated = time.Now()
}

// Recent returns a copy of the last n messages (all if n <= 0).
func (t *Thread) Recent(n int) []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	start := 0
	if n > 0 && len(t.Messages) > n {
		start = len(t.Messages) - n
	}
	out := make([]Message, len(t.Messages)-start)
	copy(out, t.Messages[start:])
	return out
}

// Len returns the number of stored messages.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.Messages)
}

// ThreadStore keeps the short-term conversation threads keyed by session.
type ThreadStore interface {
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	Recent(ctx context.Context, sessionID string, n int) ([]Message, error)
}
