package core

import (
	"fmt"
	"strings"
)

// AgentConfig is the persona and policy an agent runs a turn with.
type AgentConfig struct {
	Name             string        `json:"name" yaml:"name"`
	ShortDescription string        `json:"short_description" yaml:"short_description"`
	Identity         string        `json:"identity" yaml:"identity"`
	Mission          string        `json:"mission" yaml:"mission"`
	InteractionStyle string        `json:"interaction_style" yaml:"interaction_style"`
	Traits           TraitVector   `json:"traits" yaml:"traits"`
	Voice            VoiceSettings `json:"voice" yaml:"voice"`
	// MaxIterationsOverride replaces the trait-derived iteration cap when set.
	MaxIterationsOverride *int `json:"max_iterations_override,omitempty" yaml:"max_iterations_override"`
	// IdentityKeywords boost memories that mention them.
	IdentityKeywords []string `json:"identity_keywords,omitempty" yaml:"identity_keywords"`
}

// Validate checks the configuration for values the mapper cannot clamp.
func (c *AgentConfig) Validate() error {
	if c == nil {
		return ErrNoConfiguration
	}
	if c.MaxIterationsOverride != nil && *c.MaxIterationsOverride < 1 {
		return fmt.Errorf("max_iterations_override must be >= 1, got %d", *c.MaxIterationsOverride)
	}
	if c.Voice.Enabled && strings.TrimSpace(c.Voice.VoiceID) == "" {
		return fmt.Errorf("voice output requested without a voice_id")
	}
	return nil
}

// DisplayName returns the persona name or a neutral fallback.
func (c *AgentConfig) DisplayName() string {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return "Assistant"
	}
	return c.Name
}
