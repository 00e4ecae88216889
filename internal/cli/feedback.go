package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/hupe1980/voiceagent/config"
	"github.com/hupe1980/voiceagent/core"
)

func newFeedbackCmd(getConfig func(*cobra.Command) *config.Config) *cobra.Command {
	var (
		fb       core.Feedback
		typeName string
		aspect   string
	)

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Submit feedback about a previous response",
		Long: `Reinforce or penalize a stored memory and nudge the session's
behavioral adjustments. Use a durable memory backend (sqlite) for the memory
id to be found across invocations.

Examples:
  voiceagent feedback --session alice --type thumbs_down --memory 7f3c...
  voiceagent feedback --session alice --type rating --value 5
  voiceagent feedback --session alice --type thumbs_down --comment "too long"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(getConfig(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.agent.Close()

			fb.Type = core.ParseFeedbackType(typeName)
			fb.Aspect = core.Aspect(aspect)
			out, applyErr := a.agent.SubmitFeedback(cmd.Context(), a.cfg.Tenant, a.cfg.Agent, fb)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			return applyErr
		},
	}

	cmd.Flags().StringVar(&fb.SessionID, "session", "cli", "Session identifier")
	cmd.Flags().StringVar(&fb.MemoryID, "memory", "", "Memory record to reinforce")
	cmd.Flags().StringVar(&typeName, "type", "thumbs_up", "Feedback type (thumbs_up, thumbs_down, rating)")
	cmd.Flags().Float64Var(&fb.Value, "value", 1, "Feedback value (rating: 1-5)")
	cmd.Flags().StringVar(&aspect, "aspect", "", "Adjustment aspect (confidence, verbosity, formality)")
	cmd.Flags().StringVar(&fb.Comment, "comment", "", "Free-form comment")
	return cmd
}
