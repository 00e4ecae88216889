// Package cli implements the voiceagent command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/voiceagent/config"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		cfg     *config.Config
	)

	root := &cobra.Command{
		Use:   "voiceagent",
		Short: "voiceagent - persona-driven conversational voice agent",
		Long: `voiceagent runs conversational turns for a persona described by a
trait vector: it recalls memory, optionally calls tools, generates a reply
and renders it to speech.

Example:
  voiceagent --config voiceagent.yaml turn "what is the weather today"
  voiceagent serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./voiceagent.yaml)")
	root.PersistentFlags().String("persona", "", "persona YAML file (overrides the config)")

	getConfig := func(cmd *cobra.Command) *config.Config {
		if p, _ := cmd.Flags().GetString("persona"); p != "" {
			cfg.Persona = p
		}
		return cfg
	}

	root.AddCommand(
		newTurnCmd(getConfig),
		newServeCmd(getConfig),
		newFeedbackCmd(getConfig),
		newTraitsCmd(getConfig),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
