package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(func(o *Options) {
		o.APIKey = "secret"
		o.BaseURL = srv.URL + "/"
	})
}

func TestClient_Synthesize(t *testing.T) {
	var got speechRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte{0xff, 0xfb, 0x90})
	})

	audio, err := c.Synthesize(context.Background(), "Hello", "voice-1", core.VoiceSettings{
		Stability:       0.6,
		SimilarityBoost: 0.8,
		Style:           0.1,
		UseSpeakerBoost: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfb, 0x90}, audio)
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, DefaultModelID, got.ModelID)
	assert.InDelta(t, 0.6, got.VoiceSettings.Stability, 1e-9)
	assert.True(t, got.VoiceSettings.UseSpeakerBoost)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrUnauthorized},
		{"quota", http.StatusBadRequest, `{"detail":{"status":"quota_exceeded","message":"Quota exceeded"}}`, ErrQuotaExceeded},
		{"voice", http.StatusUnprocessableEntity, `{}`, ErrVoiceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Synthesize(context.Background(), "x", "v", core.VoiceSettings{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Synthesize(context.Background(), "x", "v", core.VoiceSettings{})
	assert.Error(t, err)
	_, err = c.Synthesize(context.Background(), "x", "", core.VoiceSettings{})
	assert.ErrorIs(t, err, ErrVoiceNotFound)
}

func TestClient_NotConfigured(t *testing.T) {
	c := New()
	assert.False(t, c.Configured())
	_, err := c.Synthesize(context.Background(), "x", "v", core.VoiceSettings{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.ListVoices(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_ListVoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voices", r.URL.Path)
		_, _ = w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"Rachel","category":"premade","labels":{"accent":"american"}}]}`))
	})
	voices, err := c.ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "Rachel", voices[0].Name)
	assert.Equal(t, "american", voices[0].Labels["accent"])
}
