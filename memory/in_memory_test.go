package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
)

// Interface compliance (compile-time assertions)
var _ core.MemoryStore = (*InMemoryStore)(nil)

var testNS = core.Namespace{Tenant: "acme", Agent: "nova"}

func TestInMemoryStore_AppendGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	id, err := s.Append(ctx, core.MemoryRecord{Namespace: testNS, Content: "likes jazz", Type: core.MemoryPreference, Metadata: map[string]string{"k": "v"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.Get(ctx, testNS, id)
	require.NoError(t, err)
	assert.Equal(t, "likes jazz", rec.Content)

	// mutation safety (returned record is a copy)
	rec.Metadata["k"] = "changed"
	again, _ := s.Get(ctx, testNS, id)
	assert.Equal(t, "v", again.Metadata["k"])

	_, err = s.Get(ctx, core.Namespace{Tenant: "other", Agent: "nova"}, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Append(ctx, core.MemoryRecord{Content: "no namespace"})
	assert.Error(t, err)
}

func TestInMemoryStore_SearchOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, c := range []string{"user loves jazz music", "weather in paris", "jazz concerts in paris"} {
		_, err := s.Append(ctx, core.MemoryRecord{Namespace: testNS, Content: c, Type: core.MemoryConversation, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	res, err := s.Search(ctx, core.SearchQuery{Namespace: testNS, Text: "jazz in paris", K: 10})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "jazz concerts in paris", res[0].Record.Content)
	for _, c := range res {
		assert.True(t, c.SemanticScore >= 0 && c.SemanticScore <= 1)
	}

	limited, _ := s.Search(ctx, core.SearchQuery{Namespace: testNS, Text: "jazz", K: 1})
	assert.Len(t, limited, 1)
}

func TestInMemoryStore_SearchFiltersTypesAndNamespaces(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	_, _ = s.Append(ctx, core.MemoryRecord{Namespace: testNS, Content: "prefers tea", Type: core.MemoryPreference})
	_, _ = s.Append(ctx, core.MemoryRecord{Namespace: testNS, Content: "said hello", Type: core.MemoryConversation})
	_, _ = s.Append(ctx, core.MemoryRecord{Namespace: core.Namespace{Tenant: "acme", Agent: "other"}, Content: "prefers coffee", Type: core.MemoryPreference})

	res, err := s.Search(ctx, core.SearchQuery{Namespace: testNS, Text: "prefers", Types: []core.MemoryType{core.MemoryPreference}})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "prefers tea", res[0].Record.Content)
}

func TestInMemoryStore_UpdateWeightConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	id, err := s.Append(ctx, core.MemoryRecord{Namespace: testNS, Content: "x"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateWeight(ctx, testNS, id, 0.01)
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Search(ctx, core.SearchQuery{Namespace: testNS, Text: "x"})
		}()
	}
	wg.Wait()

	rec, err := s.Get(ctx, testNS, id)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rec.ReinforcementWeight, 1e-9)
}

func TestInMemoryStore_UpdateWeightClamps(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	id, _ := s.Append(ctx, core.MemoryRecord{Namespace: testNS, Content: "x"})

	w, err := s.UpdateWeight(ctx, testNS, id, 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, w)
	w, _ = s.UpdateWeight(ctx, testNS, id, -7)
	assert.Equal(t, -1.0, w)

	_, err = s.UpdateWeight(ctx, testNS, "missing", 0.1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInMemoryStore().Search(ctx, core.SearchQuery{Namespace: testNS})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTermCosine(t *testing.T) {
	assert.InDelta(t, 1.0, TermCosine(Terms("Jazz music!"), Terms("music jazz")), 1e-9)
	assert.Equal(t, 0.0, TermCosine(Terms("the a of"), Terms("jazz")))
	assert.Equal(t, 0.0, VectorCosine([]float32{1, 0}, []float32{-1, 0}))
	assert.InDelta(t, 1.0, VectorCosine([]float32{1, 1}, []float32{2, 2}), 1e-6)
}
