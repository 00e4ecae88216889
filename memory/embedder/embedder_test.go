package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/memory"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestHashing_Deterministic(t *testing.T) {
	ctx := context.Background()
	h := NewHashing(0)
	assert.Equal(t, DefaultDimensions, h.Dimensions())

	a, err := h.Embed(ctx, "The weather in Paris")
	require.NoError(t, err)
	b, err := h.Embed(ctx, "the WEATHER in paris!")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, norm(a), 1e-5)
}

func TestHashing_SimilarTextsCloser(t *testing.T) {
	ctx := context.Background()
	h := NewHashing(256)

	q, _ := h.Embed(ctx, "jazz concert tickets")
	near, _ := h.Embed(ctx, "tickets for the jazz concert")
	far, _ := h.Embed(ctx, "mortgage interest rates")

	assert.Greater(t, memory.VectorCosine(q, near), memory.VectorCosine(q, far))
}

func TestHashing_EmptyTextIsUnitVector(t *testing.T) {
	v, err := NewHashing(8).Embed(context.Background(), "the a of")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(v), 1e-9)
}

func TestHashing_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashing(0).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

type countingEmbedder struct {
	calls atomic.Int32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []float32{1, 0, 0}, nil
}

var _ core.Embedder = (*countingEmbedder)(nil)

func TestCached_Memoizes(t *testing.T) {
	next := &countingEmbedder{}
	c, err := NewCached(next)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	_, err = c.Embed(ctx, "hello")
	require.NoError(t, err)
	c.Wait()

	v, err := c.Embed(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, v)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	next := &countingEmbedder{err: errors.New("boom")}
	c, err := NewCached(next)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Embed(context.Background(), "hello")
	assert.Error(t, err)
	c.Wait()
	_, err = c.Embed(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestOpenAI_Embed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[0.5,-0.25,1]}],"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	e := NewOpenAI(func(o *OpenAIOptions) {
		o.RequestOptions = []option.RequestOption{
			option.WithAPIKey("test"),
			option.WithBaseURL(srv.URL),
			option.WithMaxRetries(0),
		}
	})
	v, err := e.Embed(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, v)
	assert.Equal(t, "text-embedding-3-small", gotModel)
}

func TestOpenAI_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"m","data":[],"usage":{"prompt_tokens":0,"total_tokens":0}}`))
	}))
	defer srv.Close()

	e := NewOpenAI(func(o *OpenAIOptions) {
		o.RequestOptions = []option.RequestOption{option.WithAPIKey("test"), option.WithBaseURL(srv.URL), option.WithMaxRetries(0)}
	})
	_, err := e.Embed(context.Background(), "hi")
	assert.Error(t, err)
}
