package testutil

import (
	"github.com/hupe1980/voiceagent/core"
)

// PersonaBuilder provides a fluent helper for constructing agent configs in tests.
// Example:
//
//	cfg := NewPersonaBuilder("Nova").Trait(core.TraitVerbosity, 100).Voice("voice-1").Build()
//
// Traits start at core.DefaultTraits.
type PersonaBuilder struct {
	cfg core.AgentConfig
}

// NewPersonaBuilder creates a builder for a persona with the given name.
func NewPersonaBuilder(name string) *PersonaBuilder {
	return &PersonaBuilder{cfg: core.AgentConfig{
		Name:             name,
		ShortDescription: "a helpful voice assistant",
		Traits:           core.DefaultTraits,
	}}
}

// Description sets the short description (chainable).
func (b *PersonaBuilder) Description(d string) *PersonaBuilder { b.cfg.ShortDescription = d; return b }

// Mission sets the mission statement (chainable).
func (b *PersonaBuilder) Mission(m string) *PersonaBuilder { b.cfg.Mission = m; return b }

// Trait sets a single trait value (chainable).
func (b *PersonaBuilder) Trait(t core.Trait, v int) *PersonaBuilder {
	b.cfg.Traits = b.cfg.Traits.With(t, v)
	return b
}

// Traits replaces the whole trait vector (chainable).
func (b *PersonaBuilder) Traits(v core.TraitVector) *PersonaBuilder { b.cfg.Traits = v; return b }

// ToolProne sets maximal verbosity and no safety, so most questions route to tools (chainable).
func (b *PersonaBuilder) ToolProne() *PersonaBuilder {
	return b.Trait(core.TraitVerbosity, 100).Trait(core.TraitSafety, 0)
}

// Voice enables speech output with the given voice id (chainable).
func (b *PersonaBuilder) Voice(voiceID string) *PersonaBuilder {
	b.cfg.Voice.Enabled = true
	b.cfg.Voice.VoiceID = voiceID
	return b
}

// MaxIterations overrides the trait-derived iteration cap (chainable).
func (b *PersonaBuilder) MaxIterations(n int) *PersonaBuilder {
	b.cfg.MaxIterationsOverride = &n
	return b
}

// IdentityKeywords sets the memory boost keywords (chainable).
func (b *PersonaBuilder) IdentityKeywords(kw ...string) *PersonaBuilder {
	b.cfg.IdentityKeywords = append(b.cfg.IdentityKeywords, kw...)
	return b
}

// Build returns a fresh *core.AgentConfig.
func (b *PersonaBuilder) Build() *core.AgentConfig {
	cfg := b.cfg
	cfg.IdentityKeywords = append([]string(nil), b.cfg.IdentityKeywords...)
	return &cfg
}
