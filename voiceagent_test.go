package voiceagent

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/engine"
	"github.com/hupe1980/voiceagent/memory"
	"github.com/hupe1980/voiceagent/model"
)

type MockCompleter struct{ mock.Mock }

func (m *MockCompleter) Complete(ctx context.Context, req core.CompletionRequest) (*core.Completion, error) {
	args := m.Called(ctx, req)
	if c, ok := args.Get(0).(*core.Completion); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSynthesizer struct{ mock.Mock }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voiceID string, s core.VoiceSettings) ([]byte, error) {
	args := m.Called(ctx, text, voiceID, s)
	if b, ok := args.Get(0).([]byte); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func persona() *core.AgentConfig {
	return &core.AgentConfig{
		Name:   "Nova",
		Traits: core.DefaultTraits,
		Voice:  core.VoiceSettings{Enabled: true, VoiceID: "voice-1"},
	}
}

func TestProcessTurn(t *testing.T) {
	t.Run("returns response and audio", func(t *testing.T) {
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.MatchedBy(func(req core.CompletionRequest) bool {
			last := req.Messages[len(req.Messages)-1]
			return req.Messages[0].Role == core.RoleSystem && last.Content == "hello" && req.MaxTokens > 0
		})).Return(&core.Completion{Content: "**Hi** there", TokensUsed: 7}, nil).Once()

		synth := new(MockSynthesizer)
		synth.On("Synthesize", mock.Anything, "Hi there", "voice-1", mock.AnythingOfType("core.VoiceSettings")).
			Return([]byte{1, 2, 3}, nil).Once()

		agent := New(func(o *Options) {
			o.Completer = completer
			o.Synthesizer = synth
		})
		defer agent.Close()

		s, err := agent.ProcessTurn(context.Background(), TurnRequest{
			TenantID:  "acme",
			AgentID:   "nova",
			SessionID: "s1",
			Config:    persona(),
			Utterance: "hello",
		})

		require.NoError(t, err)
		assert.Equal(t, core.StatusCompleted, s.Status)
		assert.Equal(t, "**Hi** there", s.Response)
		assert.Equal(t, []byte{1, 2, 3}, s.Audio)
		assert.Equal(t, 7, s.TokensUsed)

		clip, err := agent.Clip(context.Background(), "s1", s.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, clip)
		completer.AssertExpectations(t)
		synth.AssertExpectations(t)
	})

	t.Run("prior context precedes the utterance", func(t *testing.T) {
		m := model.NewMockModel("mock")
		agent := New(func(o *Options) { o.Completer = m })

		cfg := persona()
		cfg.Voice = core.VoiceSettings{}
		_, err := agent.ProcessTurn(context.Background(), TurnRequest{
			TenantID:  "acme",
			AgentID:   "nova",
			SessionID: "s1",
			Config:    cfg,
			Utterance: "and tomorrow?",
			PriorContext: []core.Message{
				core.UserMessage("is it raining?"),
				core.AssistantMessage("Not right now."),
			},
		})
		require.NoError(t, err)

		reqs := m.Requests()
		require.Len(t, reqs, 1)
		msgs := reqs[0].Messages
		require.Len(t, msgs, 4)
		assert.Equal(t, "is it raining?", msgs[1].Content)
		assert.Equal(t, "and tomorrow?", msgs[3].Content)
	})

	t.Run("returns the turn error", func(t *testing.T) {
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

		agent := New(func(o *Options) { o.Completer = completer })

		s, err := agent.ProcessTurn(context.Background(), TurnRequest{
			TenantID:  "acme",
			AgentID:   "nova",
			SessionID: "s1",
			Config:    persona(),
			Utterance: "hello",
		})

		require.Error(t, err)
		require.NotNil(t, s)
		assert.Equal(t, core.StatusError, s.Status)
		assert.Equal(t, core.UpstreamCriticalError, core.KindOf(err))
		assert.Empty(t, s.Response)
	})

	t.Run("applies feedback with the turn", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		agent := New(func(o *Options) {
			o.Completer = model.NewMockModel("mock")
			o.MemoryStore = store
		})

		cfg := persona()
		cfg.Voice = core.VoiceSettings{}
		_, err := agent.ProcessTurn(context.Background(), TurnRequest{
			TenantID:  "acme",
			AgentID:   "nova",
			SessionID: "s1",
			Config:    cfg,
			Utterance: "hello",
			Feedback:  &core.Feedback{Type: core.FeedbackThumbsUp, Value: 1, Comment: "too long and wordy"},
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.1, agent.Adjustments("s1").Verbosity, 1e-9)
	})

	t.Run("records transitions through hooks", func(t *testing.T) {
		rec := engine.NewTraceRecorder()
		agent := New(func(o *Options) { o.Completer = model.NewMockModel("mock") })
		agent.RegisterHook(rec)

		cfg := persona()
		cfg.Voice = core.VoiceSettings{}
		s, err := agent.ProcessTurn(context.Background(), TurnRequest{
			TenantID: "acme", AgentID: "nova", SessionID: "s1", Config: cfg, Utterance: "hello",
		})
		require.NoError(t, err)
		assert.Len(t, rec.Trace(s.ID), len(s.Trace)-1)
	})
}

func TestSubmitFeedback(t *testing.T) {
	store := memory.NewInMemoryStore()
	agent := New(func(o *Options) {
		o.Completer = model.NewMockModel("mock")
		o.MemoryStore = store
	})

	ns := core.Namespace{Tenant: "acme", Agent: "nova"}
	id, err := store.Append(context.Background(), core.MemoryRecord{
		Namespace: ns,
		Content:   "User lives in Berlin.",
		Type:      core.MemoryIdentity,
	})
	require.NoError(t, err)

	out, err := agent.SubmitFeedback(context.Background(), "acme", "nova", core.Feedback{
		SessionID: "s1",
		MemoryID:  id,
		Type:      core.FeedbackRating,
		Value:     5,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Weight)
	assert.InDelta(t, 1.0, *out.Weight, 1e-9)
	assert.InDelta(t, 0.1, agent.Adjustments("s1").Confidence, 1e-9)
	assert.NotEmpty(t, out.FeedbackRecordID)

	_, err = agent.SubmitFeedback(context.Background(), "", "nova", core.Feedback{})
	assert.ErrorIs(t, err, core.ErrInvalidIdentifiers)
}

func TestClose(t *testing.T) {
	var closed []string
	agent := New(func(o *Options) {
		o.Closers = []io.Closer{
			closerFunc(func() error { closed = append(closed, "a"); return nil }),
			closerFunc(func() error { closed = append(closed, "b"); return errors.New("boom") }),
		}
	})

	err := agent.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"a", "b"}, closed)
}
