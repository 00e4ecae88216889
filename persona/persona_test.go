package persona

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
)

func TestBandOf(t *testing.T) {
	assert.Equal(t, BandLow, BandOf(-5))
	assert.Equal(t, BandLow, BandOf(33))
	assert.Equal(t, BandMedium, BandOf(34))
	assert.Equal(t, BandMedium, BandOf(66))
	assert.Equal(t, BandHigh, BandOf(67))
	assert.Equal(t, BandHigh, BandOf(400))
}

func TestPhrases_OnePerTrait(t *testing.T) {
	ps := Phrases(core.DefaultTraits)
	assert.Len(t, ps, len(core.Traits))
	assert.Equal(t, "Answer in as few words as possible.", Phrase(core.TraitVerbosity, 0))
	assert.Equal(t, "Be cautious and avoid speculation or risky advice.", Phrase(core.TraitSafety, 90))
}

func TestPromptBuilder_Build(t *testing.T) {
	cfg := &core.AgentConfig{
		Name:             "Nova",
		ShortDescription: "a travel concierge",
		Mission:          "Plan great trips",
		Traits:           core.DefaultTraits,
	}
	out, err := NewPromptBuilder("").Build(PromptInput{
		Config:         cfg,
		Traits:         cfg.Traits,
		Params:         Map(cfg.Traits),
		ContextSummary: "Context: 2 recent messages, 1 relevant memories",
		Persistent:     "- [preference] likes window seats",
		Observations:   []core.ToolObservation{{Tool: "weather", Output: "sunny"}, {Tool: "news", Error: "timeout"}},
		ToolsSuggested: true,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "You are Nova, a travel concierge.")
	assert.Contains(t, out, "Mission: Plan great trips")
	assert.NotContains(t, out, "Identity:")
	assert.Contains(t, out, "Keep each reply under about 360 tokens.")
	assert.Contains(t, out, "Relevant memories:\n- [preference] likes window seats")
	assert.Contains(t, out, "- weather: sunny")
	assert.Contains(t, out, "- news: unavailable (timeout)")
	assert.Contains(t, out, "live or external data")
}

func TestPromptBuilder_FallbackOnTemplateError(t *testing.T) {
	cfg := &core.AgentConfig{Name: "Nova", ShortDescription: "a guide"}
	out, err := NewPromptBuilder("{{.Name").Build(PromptInput{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, "You are Nova, a guide. Respond according to your personality traits and mission.", out)
}

func TestVoiceFor(t *testing.T) {
	s := VoiceFor(core.TraitVector{Confidence: 100, Assertiveness: 0, Creativity: 50}, core.VoiceSettings{Enabled: true, VoiceID: "v1"})
	assert.InDelta(t, 0.7, s.Stability, 1e-9)
	assert.InDelta(t, 0.6, s.SimilarityBoost, 1e-9)
	assert.InDelta(t, 0.15, s.Style, 1e-9)
	assert.True(t, s.UseSpeakerBoost)
	assert.Equal(t, DefaultVoiceModel, s.ModelID)
	assert.Equal(t, "v1", s.VoiceID)

	s = VoiceFor(core.DefaultTraits, core.VoiceSettings{Stability: 0.9, ModelID: "eleven_turbo_v2"})
	assert.InDelta(t, 0.9, s.Stability, 1e-9)
	assert.Equal(t, "eleven_turbo_v2", s.ModelID)
}

const personaYAML = `
name: Nova
short_description: a travel concierge
mission: Plan great trips
traits:
  verbosity: 20
  safety: 90
voice:
  enabled: true
  voice_id: rachel
identity_keywords: [nova, concierge]
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(personaYAML))
	require.NoError(t, err)
	assert.Equal(t, "Nova", cfg.Name)
	assert.Equal(t, 20, cfg.Traits.Verbosity)
	assert.Equal(t, 0, cfg.Traits.Creativity)
	assert.True(t, cfg.Voice.Enabled)
	assert.Equal(t, []string{"nova", "concierge"}, cfg.IdentityKeywords)
}

func TestParse_DefaultsAndErrors(t *testing.T) {
	cfg, err := Parse([]byte("name: Bare\n"))
	require.NoError(t, err)
	assert.Equal(t, core.DefaultTraits, cfg.Traits)

	_, err = Parse([]byte("name: X\nunknown: 1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("voice:\n  enabled: true\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nova.yaml")
	require.NoError(t, os.WriteFile(path, []byte(personaYAML), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a travel concierge", cfg.ShortDescription)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
