package voice

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/internal/util"
)

// MaxSpeechChars caps the text sent to a synthesizer.
const MaxSpeechChars = 2500

var (
	codeBlockRe  = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
	newlinesRe   = regexp.MustCompile(`\n+`)
	spacesRe     = regexp.MustCompile(`\s+`)
)

// CleanText strips markdown that reads badly aloud and caps the length.
func CleanText(text string) string {
	cleaned := strings.ReplaceAll(text, "*", "")
	cleaned = codeBlockRe.ReplaceAllString(cleaned, "[code block]")
	cleaned = inlineCodeRe.ReplaceAllString(cleaned, "[code]")
	cleaned = newlinesRe.ReplaceAllString(cleaned, ". ")
	cleaned = spacesRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(util.Truncate(MaxSpeechChars-3, cleaned))
}

var _ core.Synthesizer = (*MockSynthesizer)(nil)

// SynthesisCall records one MockSynthesizer invocation.
type SynthesisCall struct {
	Text     string
	VoiceID  string
	Settings core.VoiceSettings
}

// MockSynthesizer returns "audio:" + text, or a configured error.
type MockSynthesizer struct {
	mu    sync.Mutex
	err   error
	calls []SynthesisCall
}

// NewMockSynthesizer creates a MockSynthesizer.
func NewMockSynthesizer() *MockSynthesizer { return &MockSynthesizer{} }

// SetError makes every subsequent call fail with err.
func (m *MockSynthesizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the recorded invocations.
func (m *MockSynthesizer) Calls() []SynthesisCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SynthesisCall(nil), m.calls...)
}

// Synthesize implements core.Synthesizer.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text, voiceID string, s core.VoiceSettings) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SynthesisCall{Text: text, VoiceID: voiceID, Settings: s})
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []byte("audio:" + text), nil
}
