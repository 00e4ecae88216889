package artifact

import (
	"context"
	"sync"

	"github.com/hupe1980/voiceagent/core"
)

var _ core.AudioStore = (*InMemoryStore)(nil)

// DefaultMaxClipsPerSession bounds how many clips a session retains.
const DefaultMaxClipsPerSession = 20

// InMemoryStore keeps clips in a nested map guarded by an RWMutex. Data is
// copied on save and retrieval. Each session retains its most recent clips;
// older ones are evicted in insertion order.
//
// Layout: sessionID -> turnID -> clip
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*clips
	maxClips int
}

type clips struct {
	order []string
	data  map[string][]byte
}

// NewInMemoryStore returns an empty store retaining up to maxClips clips per
// session (DefaultMaxClipsPerSession when maxClips <= 0).
func NewInMemoryStore(maxClips int) *InMemoryStore {
	if maxClips <= 0 {
		maxClips = DefaultMaxClipsPerSession
	}
	return &InMemoryStore{sessions: make(map[string]*clips), maxClips: maxClips}
}

// Save stores (or overwrites) the clip for the session and turn.
func (a *InMemoryStore) Save(ctx context.Context, sessionID, turnID string, clip []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]byte, len(clip))
	copy(cp, clip)

	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.sessions[sessionID]
	if !ok {
		c = &clips{data: make(map[string][]byte)}
		a.sessions[sessionID] = c
	}
	if _, exists := c.data[turnID]; !exists {
		c.order = append(c.order, turnID)
	}
	c.data[turnID] = cp

	for len(c.order) > a.maxClips {
		delete(c.data, c.order[0])
		c.order = c.order[1:]
	}
	return nil
}

// Get returns a copy of the clip or ErrNotFound.
func (a *InMemoryStore) Get(ctx context.Context, sessionID, turnID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := c.data[turnID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the session's turn ids, oldest first.
func (a *InMemoryStore) List(sessionID string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.sessions[sessionID]
	if !ok {
		return []string{}
	}
	return append([]string(nil), c.order...)
}

// DeleteSession drops every clip of a session.
func (a *InMemoryStore) DeleteSession(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}
