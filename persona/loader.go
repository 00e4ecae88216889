package persona

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/voiceagent/core"
)

// document mirrors core.AgentConfig but distinguishes absent traits.
type document struct {
	Name                  string             `yaml:"name"`
	ShortDescription      string             `yaml:"short_description"`
	Identity              string             `yaml:"identity"`
	Mission               string             `yaml:"mission"`
	InteractionStyle      string             `yaml:"interaction_style"`
	Traits                *core.TraitVector  `yaml:"traits"`
	Voice                 core.VoiceSettings `yaml:"voice"`
	MaxIterationsOverride *int               `yaml:"max_iterations_override"`
	IdentityKeywords      []string           `yaml:"identity_keywords"`
}

// Parse decodes a YAML persona document. Missing traits default to
// core.DefaultTraits; unknown keys are rejected.
func Parse(data []byte) (*core.AgentConfig, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode persona: %w", err)
	}

	cfg := &core.AgentConfig{
		Name:                  doc.Name,
		ShortDescription:      doc.ShortDescription,
		Identity:              doc.Identity,
		Mission:               doc.Mission,
		InteractionStyle:      doc.InteractionStyle,
		Traits:                core.DefaultTraits,
		Voice:                 doc.Voice,
		MaxIterationsOverride: doc.MaxIterationsOverride,
		IdentityKeywords:      doc.IdentityKeywords,
	}
	if doc.Traits != nil {
		cfg.Traits = *doc.Traits
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid persona: %w", err)
	}
	return cfg, nil
}

// LoadFile reads and parses a persona file.
func LoadFile(path string) (*core.AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona %s: %w", path, err)
	}
	return Parse(data)
}
