// Package chromem implements core.MemoryStore on an embedded chromem-go
// vector database. Each namespace maps to its own collection.
package chromem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/memory"
)

const (
	metaSession = "_session_id"
	metaType    = "_type"
	metaCreated = "_created_at"
	metaPrefix  = "meta."
)

var _ core.MemoryStore = (*Store)(nil)

// weight is the mutable part of a record. chromem documents are immutable
// once added, so reinforcement lives beside the collection.
type weight struct {
	mu sync.Mutex
	v  float64
}

// Store is a vector-backed MemoryStore.
type Store struct {
	db       *chromem.DB
	embedder core.Embedder

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	weights     map[string]*weight // namespace/id -> weight
}

// New creates a store that embeds content with embedder.
func New(embedder core.Embedder) *Store {
	return &Store{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
		weights:     make(map[string]*weight),
	}
}

func collectionName(ns core.Namespace) string {
	return "memories-" + ns.Tenant + "-" + ns.Agent
}

func weightKey(ns core.Namespace, id string) string { return ns.String() + "/" + id }

func (s *Store) collection(ns core.Namespace, create bool) (*chromem.Collection, error) {
	key := ns.String()
	s.mu.RLock()
	col, ok := s.collections[key]
	s.mu.RUnlock()
	if ok || !create {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[key]; ok {
		return col, nil
	}
	col, err := s.db.GetOrCreateCollection(collectionName(ns), map[string]string{"namespace": key}, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", key, err)
	}
	s.collections[key] = col
	return col, nil
}

// Append embeds and stores rec. A missing id is generated.
func (s *Store) Append(ctx context.Context, rec core.MemoryRecord) (string, error) {
	if !rec.Namespace.Valid() {
		return "", fmt.Errorf("append: invalid namespace %q", rec.Namespace)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	col, err := s.collection(rec.Namespace, true)
	if err != nil {
		return "", err
	}
	if _, err := col.GetByID(ctx, rec.ID); err == nil {
		return "", fmt.Errorf("append: duplicate id %s", rec.ID)
	}

	emb, err := s.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return "", fmt.Errorf("embed: %w", err)
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: emb,
		Metadata:  encodeMetadata(rec),
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	s.mu.Lock()
	s.weights[weightKey(rec.Namespace, rec.ID)] = &weight{v: core.Clamp(rec.ReinforcementWeight, -1, 1)}
	s.mu.Unlock()
	return rec.ID, nil
}

// Search returns the nearest records to q.Text by cosine similarity.
func (s *Store) Search(ctx context.Context, q core.SearchQuery) ([]core.Candidate, error) {
	col, err := s.collection(q.Namespace, false)
	if err != nil || col == nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	emb, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem rejects n above the collection size; type filters are applied
	// afterwards, so they need the whole collection.
	n := count
	if q.K > 0 && q.K < count && len(q.Types) == 0 {
		n = q.K
	}
	results, err := col.QueryEmbedding(ctx, emb, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	out := make([]core.Candidate, 0, len(results))
	for _, r := range results {
		rec := s.decode(q.Namespace, r.ID, r.Content, r.Metadata)
		if !q.Accepts(rec.Type) {
			continue
		}
		out = append(out, core.Candidate{Record: rec, SemanticScore: memory.UnitScore(float64(r.Similarity))})
	}
	sort.SliceStable(out, func(i, j int) bool {
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
func (s *Store) UpdateWeight(ctx context.Context, ns core.Namespace, id string, delta float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	w, ok := s.weights[weightKey(ns, id)]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s in %s", memory.ErrNotFound, id, ns)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.v = core.Clamp(w.v+delta, -1, 1)
	return w.v, nil
}

// Get returns a record by id.
func (s *Store) Get(ctx context.Context, ns core.Namespace, id string) (*core.MemoryRecord, error) {
	col, err := s.collection(ns, false)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("%w: %s in %s", memory.ErrNotFound, id, ns)
	}
	doc, err := col.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", memory.ErrNotFound, id, ns)
	}
	rec := s.decode(ns, doc.ID, doc.Content, doc.Metadata)
	return &rec, nil
}

func encodeMetadata(rec core.MemoryRecord) map[string]string {
	meta := make(map[string]string, len(rec.Metadata)+3)
	for k, v := range rec.Metadata {
		meta[metaPrefix+k] = v
	}
	meta[metaSession] = rec.SessionID
	meta[metaType] = string(rec.Type)
	meta[metaCreated] = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	return meta
}

func (s *Store) decode(ns core.Namespace, id, content string, meta map[string]string) core.MemoryRecord {
	rec := core.MemoryRecord{
		ID:        id,
		Namespace: ns,
		Content:   content,
		SessionID: meta[metaSession],
		Type:      core.MemoryType(meta[metaType]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, meta[metaCreated]); err == nil {
		rec.CreatedAt = ts
	}
	for k, v := range meta {
		if strings.HasPrefix(k, metaPrefix) {
			if rec.Metadata == nil {
				rec.Metadata = make(map[string]string)
			}
			rec.Metadata[strings.TrimPrefix(k, metaPrefix)] = v
		}
	}

	s.mu.RLock()
	w := s.weights[weightKey(ns, id)]
	s.mu.RUnlock()
	if w != nil {
		w.mu.Lock()
		rec.ReinforcementWeight = w.v
		w.mu.Unlock()
	}
	return rec
}
