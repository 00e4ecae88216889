package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	voiceagent "github.com/hupe1980/voiceagent"
	"github.com/hupe1980/voiceagent/config"
	"github.com/hupe1980/voiceagent/core"
)

func newTurnCmd(getConfig func(*cobra.Command) *config.Config) *cobra.Command {
	var (
		sessionID string
		audioOut  string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "turn <utterance>",
		Short: "Run a single conversational turn",
		Long: `Run one turn for the configured persona and print the response.

Examples:
  voiceagent turn "hello there"
  voiceagent turn --session alice --audio-out reply.mp3 "read me the news"
  voiceagent turn --json "what is 12 times 7"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(getConfig(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.agent.Close()

			s, turnErr := a.agent.ProcessTurn(cmd.Context(), voiceagent.TurnRequest{
				TenantID:  a.cfg.Tenant,
				AgentID:   a.cfg.Agent,
				SessionID: sessionID,
				Config:    a.persona,
				Utterance: strings.Join(args, " "),
			})

			if audioOut != "" && len(s.Audio) > 0 {
				if err := os.WriteFile(audioOut, s.Audio, 0o600); err != nil {
					return fmt.Errorf("failed to write audio: %w", err)
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(s); err != nil {
					return err
				}
				return turnErr
			}
			if turnErr != nil {
				return turnErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), s.Response)
			printWarnings(cmd, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "cli", "Session identifier")
	cmd.Flags().StringVar(&audioOut, "audio-out", "", "Write synthesized audio to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full turn state as JSON")
	return cmd
}

func printWarnings(cmd *cobra.Command, s *core.TurnState) {
	if s.Degraded {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: turn completed with reduced functionality")
	}
	if s.BudgetExhausted {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: iteration budget exhausted")
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.Error())
	}
}
