package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/voiceagent/config"
	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/persona"
)

type traitsReport struct {
	Persona    string             `yaml:"persona"`
	Traits     core.TraitVector   `yaml:"traits"`
	Generation generationReport   `yaml:"generation"`
	Voice      core.VoiceSettings `yaml:"voice"`
	Phrases    []string           `yaml:"phrases"`
}

type generationReport struct {
	MaxTokens            int     `yaml:"max_tokens"`
	Temperature          float64 `yaml:"temperature"`
	NucleusP             float64 `yaml:"nucleus_p"`
	ToolRoutingThreshold float64 `yaml:"tool_routing_threshold"`
	MaxIterations        int     `yaml:"max_iterations"`
}

func newTraitsCmd(getConfig func(*cobra.Command) *config.Config) *cobra.Command {
	var overrides []string

	cmd := &cobra.Command{
		Use:   "traits",
		Short: "Show the generation parameters a persona maps to",
		Long: `Print the persona's trait vector and the generation parameters,
voice settings and personality phrases derived from it.

Examples:
  voiceagent traits --persona examples/persona.yaml
  voiceagent traits --set verbosity=100 --set safety=0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadPersona(getConfig(cmd))
			if err != nil {
				return err
			}
			for _, kv := range overrides {
				if p.Traits, err = applyOverride(p.Traits, kv); err != nil {
					return err
				}
			}

			params := persona.NewMapper().ForAgent(p, core.Adjustments{})
			report := traitsReport{
				Persona: p.DisplayName(),
				Traits:  p.Traits,
				Generation: generationReport{
					MaxTokens:            params.MaxTokens,
					Temperature:          params.Temperature,
					NucleusP:             params.NucleusP,
					ToolRoutingThreshold: params.ToolRoutingThreshold,
					MaxIterations:        params.MaxIterations,
				},
				Voice:   persona.VoiceFor(p.Traits, p.Voice),
				Phrases: persona.Phrases(p.Traits),
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringArrayVar(&overrides, "set", nil, "Override a trait, e.g. verbosity=80")
	return cmd
}

func applyOverride(v core.TraitVector, kv string) (core.TraitVector, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return v, fmt.Errorf("invalid trait override %q (want name=value)", kv)
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return v, fmt.Errorf("invalid value for trait %s: %w", name, err)
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range core.Traits {
		if t.String() == name {
			return v.With(t, value), nil
		}
	}
	return v, fmt.Errorf("unknown trait %q", name)
}
