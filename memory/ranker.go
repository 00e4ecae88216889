package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/logging"
)

// RankerConfig holds the composite scoring policy.
type RankerConfig struct {
	// SemanticWeight, RecencyWeight and ReinforcementWeight must sum to 1;
	// other sums are normalized.
	SemanticWeight      float64
	RecencyWeight       float64
	ReinforcementWeight float64
	// PruneThreshold drops candidates whose composite score falls below it.
	PruneThreshold float64
	// HalfLife is the age at which recency decays to 0.5.
	HalfLife time.Duration
	// DefaultK is used when a retrieval asks for k <= 0.
	DefaultK int
	// Oversample multiplies k when fetching candidates from the store.
	Oversample int
	// TypeWeights scales the composite by memory type; unknown types use 1.
	TypeWeights map[core.MemoryType]float64
	// IdentityBoost is added per identity keyword found in a record.
	IdentityBoost float64
	// Timeout bounds each store call.
	Timeout time.Duration
}

// DefaultRankerConfig is the standard ranking policy.
var DefaultRankerConfig = RankerConfig{
	SemanticWeight:      0.45,
	RecencyWeight:       0.35,
	ReinforcementWeight: 0.20,
	PruneThreshold:      0.1,
	HalfLife:            24 * time.Hour,
	DefaultK:            6,
	Oversample:          3,
	TypeWeights: map[core.MemoryType]float64{
		core.MemoryPreference:   1.3,
		core.MemoryIdentity:     1.2,
		core.MemoryFeedback:     1.1,
		core.MemorySummary:      1.0,
		core.MemoryConversation: 0.8,
	},
	IdentityBoost: 0.1,
	Timeout:       5 * time.Second,
}

// RankerOptions configures a Ranker.
type RankerOptions struct {
	Config RankerConfig
	Logger logging.Logger
	// Now is the clock used for recency; defaults to time.Now.
	Now func() time.Time
}

// ScoredMemory is a record with the components of its composite score.
type ScoredMemory struct {
	Record     core.MemoryRecord
	Semantic   float64
	Recency    float64
	TypeWeight float64
	Boost      float64
	Composite  float64
}

// Request describes a retrieval.
type Request struct {
	Namespace        core.Namespace
	Query            string
	K                int
	Types            []core.MemoryType
	IdentityKeywords []string
}

// Ranker retrieves and appends memory records through a MemoryStore.
type Ranker struct {
	store  core.MemoryStore
	cfg    RankerConfig
	logger logging.Logger
	now    func() time.Time
}

// NewRanker creates a Ranker over store.
func NewRanker(store core.MemoryStore, optFns ...func(o *RankerOptions)) *Ranker {
	opts := RankerOptions{Config: DefaultRankerConfig, Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	cfg := opts.Config
	sum := cfg.SemanticWeight + cfg.RecencyWeight + cfg.ReinforcementWeight
	if sum > 0 && math.Abs(sum-1) > 1e-9 {
		cfg.SemanticWeight /= sum
		cfg.RecencyWeight /= sum
		cfg.ReinforcementWeight /= sum
	}
	if cfg.HalfLife <= 0 {
		cfg.HalfLife = DefaultRankerConfig.HalfLife
	}
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = DefaultRankerConfig.DefaultK
	}
	if cfg.Oversample < 1 {
		cfg.Oversample = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ranker{store: store, cfg: cfg, logger: logging.OrNoOp(opts.Logger), now: opts.Now}
}

// Config returns the effective (normalized) configuration.
func (r *Ranker) Config() RankerConfig { return r.cfg }

// Store returns the underlying store.
func (r *Ranker) Store() core.MemoryStore { return r.store }

// Retrieve returns at most k records of ns ranked for query.
func (r *Ranker) Retrieve(ctx context.Context, ns core.Namespace, query string, k int) ([]ScoredMemory, error) {
	return r.Search(ctx, Request{Namespace: ns, Query: query, K: k})
}

// Search scores the store's candidates, drops those under the prune
// threshold and returns the best K ordered by composite score, newer first
// on ties.
func (r *Ranker) Search(ctx context.Context, req Request) ([]ScoredMemory, error) {
	k := req.K
	if k <= 0 {
		k = r.cfg.DefaultK
	}
	if !req.Namespace.Valid() {
		return nil, fmt.Errorf("retrieve: invalid namespace %q", req.Namespace)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	candidates, err := r.store.Search(ctx, core.SearchQuery{
		Namespace: req.Namespace,
		Text:      req.Query,
		K:         k * r.cfg.Oversample,
		Types:     req.Types,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	now := r.now()
	keywords := lowerAll(req.IdentityKeywords)
	scored := make([]ScoredMemory, 0, len(candidates))
	for _, c := range candidates {
		sm := r.score(c, now, keywords)
		if sm.Composite < r.cfg.PruneThreshold {
			continue
		}
		scored = append(scored, sm)
	}
	SortScored(scored)
	if len(scored) > k {
		scored = scored[:k]
	}

	r.logger.Debug("memory.retrieve", "namespace", req.Namespace.String(), "candidates", len(candidates), "returned", len(scored))
	return scored, nil
}

// Score computes the composite score of a candidate at time now.
func (r *Ranker) Score(c core.Candidate, now time.Time) ScoredMemory {
	return r.score(c, now, nil)
}

func (r *Ranker) score(c core.Candidate, now time.Time, identityKeywords []string) ScoredMemory {
	semantic := core.Clamp(c.SemanticScore, 0, 1)
	if math.IsNaN(semantic) {
		semantic = 0
	}
	recency := r.Recency(c.Record.CreatedAt, now)
	weight := core.Clamp(c.Record.ReinforcementWeight, -1, 1)
	typeWeight, ok := r.cfg.TypeWeights[c.Record.Type]
	if !ok {
		typeWeight = 1
	}

	boost := 0.0
	if len(identityKeywords) > 0 {
		content := strings.ToLower(c.Record.Content)
		for _, kw := range identityKeywords {
			if kw != "" && strings.Contains(content, kw) {
				boost += r.cfg.IdentityBoost
			}
		}
	}

	base := r.cfg.SemanticWeight*semantic + r.cfg.RecencyWeight*recency + r.cfg.ReinforcementWeight*weight
	return ScoredMemory{
		Record:     c.Record,
		Semantic:   semantic,
		Recency:    recency,
		TypeWeight: typeWeight,
		Boost:      boost,
		Composite:  base*typeWeight + boost,
	}
}

// Recency is exp(-ln2/halfLife * age); future timestamps count as age 0.
func (r *Ranker) Recency(createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Exp(-math.Ln2 / r.cfg.HalfLife.Hours() * hours)
}

// Append stores rec under ns with a fresh id and zero weight. Errors are
// returned for the caller to report; they never need to fail a turn.
func (r *Ranker) Append(ctx context.Context, ns core.Namespace, rec core.MemoryRecord) (core.MemoryRecord, error) {
	rec.ID = uuid.NewString()
	rec.Namespace = ns
	rec.ReinforcementWeight = 0
	if rec.Type == "" {
		rec.Type = core.MemoryConversation
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	id, err := r.store.Append(ctx, rec)
	if err != nil {
		r.logger.Warn("memory.append.failed", "namespace", ns.String(), "type", string(rec.Type), "error", err.Error())
		return rec, fmt.Errorf("append: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (r *Ranker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.Timeout)
}

// SortScored orders by composite descending, then newer created_at, then id.
func SortScored(s []ScoredMemory) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if !a.Record.CreatedAt.Equal(b.Record.CreatedAt) {
			return a.Record.CreatedAt.After(b.Record.CreatedAt)
		}
		return a.Record.ID < b.Record.ID
	})
}

// Records strips scores from a ranked list.
func Records(s []ScoredMemory) []core.MemoryRecord {
	out := make([]core.MemoryRecord, len(s))
	for i, sm := range s {
		out[i] = sm.Record
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
