package ws

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	voiceagent "github.com/hupe1980/voiceagent"
	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/internal/testutil"
	"github.com/hupe1980/voiceagent/model"
	"github.com/hupe1980/voiceagent/voice"
)

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

func newServer(t *testing.T, agent *voiceagent.VoiceAgent, optFns ...func(o *Options)) (*Handler, string) {
	t.Helper()
	fns := append([]func(o *Options){func(o *Options) {
		o.TenantID = "acme"
		o.AgentID = "nova"
		o.Persona = testutil.NewPersonaBuilder("Nova").Voice("voice-1").Build()
	}}, optFns...)

	h := NewHandler(agent, fns...)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		require.NoError(t, h.Close())
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, in Inbound) Outbound {
	t.Helper()
	require.NoError(t, conn.WriteJSON(in))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func newAgent() *voiceagent.VoiceAgent {
	return voiceagent.New(func(o *voiceagent.Options) {
		o.Completer = model.NewMockModel("mock")
		o.Synthesizer = voice.NewMockSynthesizer()
	})
}

func TestHandlerTurn(t *testing.T) {
	_, url := newServer(t, newAgent())
	conn := dial(t, url+"?session_id=s1")

	out := roundTrip(t, conn, Inbound{Type: TypeTurn, ID: "1", Utterance: "hello"})

	assert.Equal(t, TypeResponse, out.Type)
	assert.Equal(t, "1", out.ID)
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, "Mock response to: hello", out.Text)
	assert.Equal(t, "audio:Mock response to: hello", string(out.Audio))
	assert.Equal(t, "completed", out.Status)
	assert.NotEmpty(t, out.TurnID)
	assert.Empty(t, out.Error)
}

func TestHandlerTurnError(t *testing.T) {
	m := model.NewMockModel("mock")
	m.SetError(errors.New("overloaded"))
	agent := voiceagent.New(func(o *voiceagent.Options) { o.Completer = m })

	_, url := newServer(t, agent)
	conn := dial(t, url)

	out := roundTrip(t, conn, Inbound{Type: TypeTurn, Utterance: "hello"})

	assert.Equal(t, TypeResponse, out.Type)
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, core.UpstreamCriticalError.String(), out.ErrorKind)
	assert.Empty(t, out.Text)
}

func TestHandlerAudio(t *testing.T) {
	t.Run("transcribes audio", func(t *testing.T) {
		_, url := newServer(t, newAgent(), func(o *Options) {
			o.Transcriber = fakeTranscriber{text: "good morning"}
		})
		conn := dial(t, url)

		out := roundTrip(t, conn, Inbound{Type: TypeTurn, Audio: []byte{0x52, 0x49}, MimeType: "audio/wav"})

		assert.Equal(t, "good morning", out.Utterance)
		assert.Equal(t, "Mock response to: good morning", out.Text)
	})

	t.Run("without transcriber", func(t *testing.T) {
		_, url := newServer(t, newAgent())
		conn := dial(t, url)

		out := roundTrip(t, conn, Inbound{Type: TypeTurn, Audio: []byte{1}})

		assert.Equal(t, TypeError, out.Type)
	})

	t.Run("transcription failure", func(t *testing.T) {
		_, url := newServer(t, newAgent(), func(o *Options) {
			o.Transcriber = fakeTranscriber{err: errors.New("bad audio")}
		})
		conn := dial(t, url)

		out := roundTrip(t, conn, Inbound{Type: TypeTurn, Audio: []byte{1}})

		assert.Equal(t, TypeError, out.Type)
		assert.Equal(t, "transcription failed", out.Error)
	})
}

func TestHandlerFeedback(t *testing.T) {
	agent := newAgent()
	_, url := newServer(t, agent)
	conn := dial(t, url+"?session_id=s1")

	out := roundTrip(t, conn, Inbound{
		Type:     TypeFeedback,
		ID:       "f1",
		Feedback: &core.Feedback{Type: core.FeedbackThumbsUp, Value: 1},
	})

	assert.Equal(t, TypeAck, out.Type)
	assert.Equal(t, "f1", out.ID)
	assert.Equal(t, "s1", out.SessionID)
	assert.Empty(t, out.Warnings)
	assert.InDelta(t, 0.1, agent.Adjustments("s1").Confidence, 1e-9)

	out = roundTrip(t, conn, Inbound{Type: TypeFeedback, ID: "f2"})
	assert.Equal(t, TypeError, out.Type)
}

func TestHandlerControlFrames(t *testing.T) {
	_, url := newServer(t, newAgent())
	conn := dial(t, url)

	assert.Equal(t, TypePong, roundTrip(t, conn, Inbound{Type: TypePing, ID: "p"}).Type)

	out := roundTrip(t, conn, Inbound{Type: "bogus"})
	assert.Equal(t, TypeError, out.Type)
	assert.Contains(t, out.Error, "bogus")
}

func TestHandlerOrigin(t *testing.T) {
	_, url := newServer(t, newAgent(), func(o *Options) {
		o.AllowedOrigins = []string{"https://app.example.com"}
	})

	_, resp, err := websocket.DefaultDialer.Dial(url, map[string][]string{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, 403, resp.StatusCode)

	conn, resp, err := websocket.DefaultDialer.Dial(url, map[string][]string{"Origin": {"https://app.example.com"}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	_ = conn.Close()
}

func TestHandlerClose(t *testing.T) {
	h := NewHandler(newAgent(), func(o *Options) {
		o.Persona = testutil.NewPersonaBuilder("Nova").Build()
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()

	require.NoError(t, h.Close())

	var out Outbound
	assert.Error(t, conn.ReadJSON(&out))
}
