package session

import (
	"context"
	"sync"

	"github.com/hupe1980/voiceagent/core"
)

// DefaultMaxThreadLength bounds each stored thread; older messages are dropped.
const DefaultMaxThreadLength = 100

var _ core.ThreadStore = (*InMemoryStore)(nil)

// InMemoryStore is a volatile ThreadStore keeping threads in a process local
// map. It is safe for concurrent access and best suited for tests or
// single-instance servers. Returned messages are copies.
type InMemoryStore struct {
	mu        sync.RWMutex
	threads   map[string]*core.Thread
	maxLength int
}

// NewInMemoryStore constructs an empty store. maxLength <= 0 selects
// DefaultMaxThreadLength.
func NewInMemoryStore(maxLength int) *InMemoryStore {
	if maxLength <= 0 {
		maxLength = DefaultMaxThreadLength
	}
	return &InMemoryStore{threads: make(map[string]*core.Thread), maxLength: maxLength}
}

// Append adds messages to a session's thread, creating it lazily.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, msgs ...core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.threadFor(sessionID).Add(s.maxLength, msgs...)
	return nil
}

// Recent returns the last n messages of a session (all if n <= 0). Unknown
// sessions yield an empty slice.
func (s *InMemoryStore) Recent(ctx context.Context, sessionID string, n int) ([]core.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	t, ok := s.threads[sessionID]
	s.mu.RUnlock()
	if !ok {
		return []core.Message{}, nil
	}
	return t.Recent(n), nil
}

// Delete removes a session's thread.
func (s *InMemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, sessionID)
}

// Len returns the number of stored threads.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

func (s *InMemoryStore) threadFor(sessionID string) *core.Thread {
	s.mu.RLock()
	t, ok := s.threads[sessionID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[sessionID]; ok {
		return t
	}
	t = core.NewThread(sessionID)
	s.threads[sessionID] = t
	return t
}
