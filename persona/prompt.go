package persona

import (
	"fmt"
	"strings"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/internal/util"
)

// DefaultTemplate is the system prompt layout used by PromptBuilder.
const DefaultTemplate = `You are {{.Name}}{{if .ShortDescription}}, {{.ShortDescription}}{{end}}.
{{- if .Identity}}
Identity: {{.Identity}}{{end}}
{{- if .Mission}}
Mission: {{.Mission}}{{end}}
{{- if .InteractionStyle}}
Interaction style: {{.InteractionStyle}}{{end}}

Personality:
{{- range .Phrases}}
- {{.}}{{end}}
Keep each reply under about {{.MaxTokens}} tokens.
{{- if .ContextSummary}}

{{.ContextSummary}}{{end}}
{{- if .ShortTerm}}

Recent conversation:
{{.ShortTerm}}{{end}}
{{- if .Persistent}}

Relevant memories:
{{.Persistent}}{{end}}
{{- if .Observations}}

Tool results:
{{- range .Observations}}
- {{.Tool}}: {{if .Error}}unavailable ({{.Error}}){{else}}{{truncate 500 .Output}}{{end}}{{end}}{{end}}
{{- if .ToolsSuggested}}

This request likely needs live or external data. If you cannot access it, say so instead of guessing.{{end}}`

// PromptInput is everything the system prompt is rendered from.
type PromptInput struct {
	Config         *core.AgentConfig
	Traits         core.TraitVector
	Params         core.GenerationParams
	ContextSummary string
	ShortTerm      string
	Persistent     string
	Observations   []core.ToolObservation
	ToolsSuggested bool
}

// PromptBuilder renders system instructions from persona, traits and context.
type PromptBuilder struct {
	template string
}

// NewPromptBuilder creates a builder; an empty template selects DefaultTemplate.
func NewPromptBuilder(template string) *PromptBuilder {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	return &PromptBuilder{template: template}
}

// Build renders the instructions. On a template error it returns the
// fallback prompt together with the error.
func (b *PromptBuilder) Build(in PromptInput) (string, error) {
	cfg := in.Config
	if cfg == nil {
		cfg = &core.AgentConfig{}
	}
	data := map[string]any{
		"Name":             cfg.DisplayName(),
		"ShortDescription": cfg.ShortDescription,
		"Identity":         cfg.Identity,
		"Mission":          cfg.Mission,
		"InteractionStyle": cfg.InteractionStyle,
		"Phrases":          Phrases(in.Traits),
		"MaxTokens":        in.Params.MaxTokens,
		"ContextSummary":   in.ContextSummary,
		"ShortTerm":        in.ShortTerm,
		"Persistent":       in.Persistent,
		"Observations":     in.Observations,
		"ToolsSuggested":   in.ToolsSuggested,
	}
	out, err := util.RenderTemplate(b.template, data)
	if err != nil {
		return Fallback(cfg), fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Fallback is the minimal prompt used when rendering fails.
func Fallback(cfg *core.AgentConfig) string {
	desc := "a helpful assistant"
	if cfg != nil && strings.TrimSpace(cfg.ShortDescription) != "" {
		desc = cfg.ShortDescription
	}
	return fmt.Sprintf("You are %s, %s. Respond according to your personality traits and mission.", cfg.DisplayName(), desc)
}
