package memory

import (
	"fmt"
	"strings"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/internal/util"
)

// ContextConfig controls how retrieved memory is injected into a prompt.
type ContextConfig struct {
	ThreadWindow   int
	MaxMemories    int
	MaxMemoryChars int
}

// DefaultContextConfig is the standard injection policy.
var DefaultContextConfig = ContextConfig{
	ThreadWindow:   20,
	MaxMemories:    3,
	MaxMemoryChars: 200,
}

// Context is the rendered memory context of a turn.
type Context struct {
	ShortTerm  string
	Persistent string
	Summary    string
	Confidence float64
}

// BuildContext renders the short-term thread and the top memories, and
// scores how much context the turn has.
func BuildContext(cfg ContextConfig, thread []core.Message, memories []ScoredMemory, confidenceDelta float64) Context {
	if cfg.ThreadWindow > 0 && len(thread) > cfg.ThreadWindow {
		thread = thread[len(thread)-cfg.ThreadWindow:]
	}

	var st strings.Builder
	for i, m := range thread {
		if i > 0 {
			st.WriteByte('\n')
		}
		fmt.Fprintf(&st, "%s: %s", m.Role, m.Content)
	}

	top := memories
	if cfg.MaxMemories > 0 && len(top) > cfg.MaxMemories {
		top = top[:cfg.MaxMemories]
	}
	var pt strings.Builder
	for i, m := range top {
		if i > 0 {
			pt.WriteByte('\n')
		}
		fmt.Fprintf(&pt, "- [%s] %s", m.Record.Type, util.Truncate(cfg.MaxMemoryChars, m.Record.Content))
	}

	confidence := 0.5 +
		min(0.2, 0.02*float64(len(thread))) +
		min(0.3, 0.05*float64(len(memories))) +
		confidenceDelta

	return Context{
		ShortTerm:  st.String(),
		Persistent: pt.String(),
		Summary:    fmt.Sprintf("Context: %d recent messages, %d relevant memories", len(thread), len(memories)),
		Confidence: core.Clamp(confidence, 0, 1),
	}
}
