package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MemoryType classifies a memory record. Each type carries a ranking weight.
type MemoryType string

const (
	MemoryConversation MemoryType = "conversation"
	MemoryPreference   MemoryType = "preference"
	MemoryIdentity     MemoryType = "identity"
	MemoryFeedback     MemoryType = "feedback"
	MemorySummary      MemoryType = "summary"
)

// MemoryTypes lists every known memory type.
var MemoryTypes = []MemoryType{
	MemoryConversation,
	MemoryPreference,
	MemoryIdentity,
	MemoryFeedback,
	MemorySummary,
}

// Valid reports whether t is a known memory type.
func (t MemoryType) Valid() bool {
	for _, known := range MemoryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Namespace partitions memory by tenant and agent.
type Namespace struct {
	Tenant string `json:"tenant"`
	Agent  string `json:"agent"`
}

// String renders the namespace key "{tenant}:{agent}".
func (n Namespace) String() string { return n.Tenant + ":" + n.Agent }

// Valid reports whether both scopes are set.
func (n Namespace) Valid() bool {
	return strings.TrimSpace(n.Tenant) != "" && strings.TrimSpace(n.Agent) != ""
}

// ParseNamespace parses a "{tenant}:{agent}" key.
func ParseNamespace(key string) (Namespace, error) {
	tenant, agent, ok := strings.Cut(key, ":")
	ns := Namespace{Tenant: tenant, Agent: agent}
	if !ok || !ns.Valid() {
		return Namespace{}, fmt.Errorf("invalid namespace %q", key)
	}
	return ns, nil
}

// MemoryRecord is a single long-term memory entry. Records are never deleted
// by the engine; feedback lowers their weight until they stop surfacing.
type MemoryRecord struct {
	ID                  string            `json:"id"`
	Namespace           Namespace         `json:"namespace"`
	SessionID           string            `json:"session_id,omitempty"`
	Content             string            `json:"content"`
	Type                MemoryType        `json:"type"`
	CreatedAt           time.Time         `json:"created_at"`
	ReinforcementWeight float64           `json:"reinforcement_weight"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// Candidate is a record returned by a store search with its semantic score.
type Candidate struct {
	Record        MemoryRecord
	SemanticScore float64
}

// SearchQuery selects candidates from a single namespace.
type SearchQuery struct {
	Namespace Namespace
	Text      string
	K         int
	// Types restricts results to the listed types; empty means all.
	Types []MemoryType
}

// Accepts reports whether the query's type filter admits t.
func (q SearchQuery) Accepts(t MemoryType) bool {
	if len(q.Types) == 0 {
		return true
	}
	for _, allowed := range q.Types {
		if allowed == t {
			return true
		}
	}
	return false
}

// MemoryStore persists memory records and searches them by semantic
// similarity. Implementations must make UpdateWeight an atomic per-record
// read-modify-write whose result is clamped to [-1, 1].
type MemoryStore interface {
	Search(ctx context.Context, q SearchQuery) ([]Candidate, error)
	Append(ctx context.Context, rec MemoryRecord) (string, error)
	UpdateWeight(ctx context.Context, ns Namespace, id string, delta float64) (float64, error)
	Get(ctx context.Context, ns Namespace, id string) (*MemoryRecord, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
