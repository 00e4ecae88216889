package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/voiceagent/core"
)

var _ core.Embedder = (*OpenAI)(nil)

// OpenAIOptions configures the OpenAI embedder.
type OpenAIOptions struct {
	Model      openai.EmbeddingModel
	Dimensions int64
	// RequestOptions are passed to the client (API key, base URL, retries).
	RequestOptions []option.RequestOption
}

// OpenAI embeds text with the OpenAI embeddings endpoint.
type OpenAI struct {
	client *openai.Client
	opts   OpenAIOptions
}

// NewOpenAI creates an OpenAI embedder. The client reads OPENAI_API_KEY
// unless RequestOptions set a key.
func NewOpenAI(optFns ...func(o *OpenAIOptions)) *OpenAI {
	opts := OpenAIOptions{
		Model: openai.EmbeddingModelTextEmbedding3Small,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := openai.NewClient(opts.RequestOptions...)
	return &OpenAI{client: &client, opts: opts}
}

// Embed returns the embedding of text.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.opts.Model,
	}
	if e.opts.Dimensions > 0 {
		params.Dimensions = openai.Int(e.opts.Dimensions)
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embeddings: empty response")
	}

	src := resp.Data[0].Embedding
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out, nil
}
