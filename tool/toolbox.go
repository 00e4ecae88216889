package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/internal/util"
	"github.com/hupe1980/voiceagent/logging"
)

// MaxOutputChars caps a tool observation before it reaches the prompt.
const MaxOutputChars = 1000

// ToolboxOptions configures a Toolbox.
type ToolboxOptions struct {
	Logger logging.Logger
	// Timeout bounds each tool call.
	Timeout time.Duration
	// MaxTools caps how many tools run for one utterance.
	MaxTools int
}

type registration struct {
	tool     Tool
	triggers []string
}

// Toolbox holds the tools available to a turn and the trigger keywords that
// select them.
type Toolbox struct {
	mu     sync.RWMutex
	tools  []registration
	opts   ToolboxOptions
	logger logging.Logger
}

// NewToolbox creates an empty toolbox.
func NewToolbox(optFns ...func(o *ToolboxOptions)) *Toolbox {
	opts := ToolboxOptions{
		Timeout:  10 * time.Second,
		MaxTools: 3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Toolbox{opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Register adds a tool selected when the utterance contains any trigger
// (case-insensitive, word-bounded). A tool without triggers is always
// selected. Names must be unique.
func (b *Toolbox) Register(t Tool, triggers ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.tools {
		if r.tool.Name() == t.Name() {
			return fmt.Errorf("tool %q already registered", t.Name())
		}
	}
	lowered := make([]string, len(triggers))
	for i, tr := range triggers {
		lowered[i] = strings.ToLower(strings.TrimSpace(tr))
	}
	b.tools = append(b.tools, registration{tool: t, triggers: lowered})
	return nil
}

// Len returns the number of registered tools.
func (b *Toolbox) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tools)
}

// Select returns the tools matching utterance in registration order.
func (b *Toolbox) Select(utterance string) []Tool {
	padded := " " + normalize(utterance) + " "

	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Tool
	for _, r := range b.tools {
		if matches(padded, r.triggers) {
			out = append(out, r.tool)
			if b.opts.MaxTools > 0 && len(out) == b.opts.MaxTools {
				break
			}
		}
	}
	return out
}

// Run executes the selected tools concurrently and returns one observation
// per tool in selection order. Tool failures are recorded, not returned.
func (b *Toolbox) Run(ctx context.Context, utterance string) []core.ToolObservation {
	selected := b.Select(utterance)
	obs := make([]core.ToolObservation, len(selected))

	var wg sync.WaitGroup
	for i, t := range selected {
		wg.Add(1)
		go func(i int, t Tool) {
			defer wg.Done()
			obs[i] = b.call(ctx, t, utterance)
		}(i, t)
	}
	wg.Wait()
	return obs
}

func (b *Toolbox) call(ctx context.Context, t Tool, utterance string) core.ToolObservation {
	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := t.Call(ctx, map[string]any{QueryArg: utterance})
	b.logger.Debug("tool.call", "tool", t.Name(), "duration", time.Since(start), "error", err)

	obs := core.ToolObservation{Tool: t.Name()}
	if err != nil {
		obs.Error = err.Error()
		return obs
	}
	obs.Output = util.Truncate(MaxOutputChars, render(result))
	return obs
}

func render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func matches(padded string, triggers []string) bool {
	if len(triggers) == 0 {
		return true
	}
	for _, tr := range triggers {
		if tr != "" && strings.Contains(padded, " "+tr+" ") {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\'':
			return -1
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
