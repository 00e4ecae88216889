package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewModel(func(o *Options) {
		o.APIKey = "test"
		o.RequestOptions = []option.RequestOption{
			option.WithBaseURL(srv.URL),
			option.WithMaxRetries(0),
		}
	})
}

func TestModel_Complete(t *testing.T) {
	var body map[string]any
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"Hello "},{"type":"text","text":"friend"}],
			"stop_reason":"end_turn","stop_sequence":null,
			"usage":{"input_tokens":12,"output_tokens":4}
		}`))
	})

	got, err := m.Complete(context.Background(), core.CompletionRequest{
		Messages: []core.Message{
			core.SystemMessage("You are Nova."),
			core.UserMessage("hi"),
		},
		MaxTokens:   300,
		Temperature: 0.5,
		TopP:        0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello friend", got.Content)
	assert.Equal(t, 16, got.TokensUsed)

	assert.EqualValues(t, 300, body["max_tokens"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	assert.Equal(t, "You are Nova.", system[0].(map[string]any)["text"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}

func TestModel_DefaultMaxTokens(t *testing.T) {
	var body map[string]any
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m","type":"message","role":"assistant","model":"c","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	})
	got, err := m.Complete(context.Background(), core.CompletionRequest{Messages: []core.Message{core.UserMessage("x")}})
	require.NoError(t, err)
	assert.Empty(t, got.Content)
	assert.EqualValues(t, 1024, body["max_tokens"])
}

func TestModel_UpstreamError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, http.StatusBadRequest)
	})
	_, err := m.Complete(context.Background(), core.CompletionRequest{Messages: []core.Message{core.UserMessage("x")}})
	assert.Error(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)
}
