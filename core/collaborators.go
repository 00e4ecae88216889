package core

import "context"

// CompletionRequest is the input of a text-completion call.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Completion is the result of a text-completion call.
type Completion struct {
	Content    string
	TokensUsed int
}

// Completer produces assistant text from a message list.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (*Completion, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return f(ctx, req)
}

// VoiceSettings controls speech synthesis.
type VoiceSettings struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	VoiceID         string  `json:"voice_id,omitempty" yaml:"voice_id"`
	ModelID         string  `json:"model_id,omitempty" yaml:"model_id"`
	Stability       float64 `json:"stability" yaml:"stability"`
	SimilarityBoost float64 `json:"similarity_boost" yaml:"similarity_boost"`
	Style           float64 `json:"style" yaml:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost" yaml:"use_speaker_boost"`
}

// Synthesizer renders text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, s VoiceSettings) ([]byte, error)
}

// Transcriber converts audio into an utterance.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// AudioStore keeps synthesized clips per session, keyed by turn id.
type AudioStore interface {
	Save(ctx context.Context, sessionID, turnID string, clip []byte) error
	Get(ctx context.Context, sessionID, turnID string) ([]byte, error)
}
