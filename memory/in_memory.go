package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/voiceagent/core"
)

// ErrNotFound is returned when a memory record does not exist in a namespace.
var ErrNotFound = errors.New("memory not found")

// entry guards one record; weight updates lock only the record they touch.
type entry struct {
	mu    sync.Mutex
	rec   core.MemoryRecord
	terms map[string]float64
}

func (e *entry) snapshot() core.MemoryRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec := e.rec
	if e.rec.Metadata != nil {
		rec.Metadata = make(map[string]string, len(e.rec.Metadata))
		for k, v := range e.rec.Metadata {
			rec.Metadata[k] = v
		}
	}
	return rec
}

// InMemoryStore is a process-local MemoryStore partitioned by namespace.
//
// Concurrency: the namespace maps are protected by an RWMutex; each record has
// its own mutex so UpdateWeight serializes per record without blocking search.
// Search: lexical cosine similarity over stopword-filtered terms.
type InMemoryStore struct {
	mu     sync.RWMutex
	spaces map[string]map[string]*entry // namespace -> id -> entry
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{spaces: make(map[string]map[string]*entry)}
}

// Append stores a copy of rec. A missing id is generated.
func (s *InMemoryStore) Append(ctx context.Context, rec core.MemoryRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !rec.Namespace.Valid() {
		return "", fmt.Errorf("append: invalid namespace %q", rec.Namespace)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.ReinforcementWeight = core.Clamp(rec.ReinforcementWeight, -1, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Namespace.String()
	space, ok := s.spaces[key]
	if !ok {
		space = make(map[string]*entry)
		s.spaces[key] = space
	}
	if _, dup := space[rec.ID]; dup {
		return "", fmt.Errorf("append: duplicate id %s", rec.ID)
	}
	space[rec.ID] = &entry{rec: rec, terms: Terms(rec.Content)}
	return rec.ID, nil
}

// Search returns up to q.K candidates ordered by semantic score, newest first
// on ties. Records without lexical overlap are still returned with score 0.
func (s *InMemoryStore) Search(ctx context.Context, q core.SearchQuery) ([]core.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := Terms(q.Text)

	s.mu.RLock()
	space := s.spaces[q.Namespace.String()]
	entries := make([]*entry, 0, len(space))
	for _, e := range space {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]core.Candidate, 0, len(entries))
	for _, e := range entries {
		rec := e.snapshot()
		if !q.Accepts(rec.Type) {
			continue
		}
		out = append(out, core.Candidate{Record: rec, SemanticScore: TermCosine(query, e.terms)})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SemanticScore != b.SemanticScore {
			return a.SemanticScore > b.SemanticScore
		}
		if !a.Record.CreatedAt.Equal(b.Record.CreatedAt) {
			return a.Record.CreatedAt.After(b.Record.CreatedAt)
		}
		return a.Record.ID < b.Record.ID
	})
	if q.K > 0 && len(out) > q.K {
		out = out[:q.K]
	}
	return out, nil
}

// UpdateWeight atomically adds delta to a record's weight, clamped to [-1,1].
func (s *InMemoryStore) UpdateWeight(ctx context.Context, ns core.Namespace, id string, delta float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e, err := s.lookup(ns, id)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.ReinforcementWeight = core.Clamp(e.rec.ReinforcementWeight+delta, -1, 1)
	return e.rec.ReinforcementWeight, nil
}

// Get returns a copy of a record.
func (s *InMemoryStore) Get(ctx context.Context, ns core.Namespace, id string) (*core.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := s.lookup(ns, id)
	if err != nil {
		return nil, err
	}
	rec := e.snapshot()
	return &rec, nil
}

// Len returns the number of records in a namespace.
func (s *InMemoryStore) Len(ns core.Namespace) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spaces[ns.String()])
}

func (s *InMemoryStore) lookup(ns core.Namespace, id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.spaces[ns.String()][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, id, ns)
	}
	return e, nil
}
