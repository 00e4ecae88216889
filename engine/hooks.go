package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/voiceagent/core"
)

// HookType defines the lifecycle points where hooks run.
//
// Hooks observe the turn without modifying node logic. They run synchronously
// on the turn's goroutine, so they should be fast.
type HookType string

const (
	// HookBeforeNode runs before a node handler. Returning an error fails the
	// turn with a ConfigurationError, which makes it usable as a policy gate.
	HookBeforeNode HookType = "before_node"

	// HookAfterNode runs after a transition has been decided. Errors are
	// logged and ignored.
	HookAfterNode HookType = "after_node"

	// HookOnError runs once when a turn ends in the Error status.
	HookOnError HookType = "on_error"
)

// HookContext describes the point in the turn a hook runs at.
type HookContext struct {
	// Turn is the live state. Hooks must not retain it after returning.
	Turn *core.TurnState
	// Node is the status being executed.
	Node core.Status
	// Next is the decided successor; only set for HookAfterNode.
	Next core.Status
	// HookType indicates which hook type triggered this execution.
	HookType HookType
}

// Hook is a turn lifecycle observer.
type Hook interface {
	// Type returns the hook type this implementation handles.
	Type() HookType

	// Execute performs the hook logic.
	Execute(ctx context.Context, hookCtx *HookContext) error
}

// FunctionHook wraps a function as a Hook.
//
// Example:
//
//	trace := NewFunctionHook(HookAfterNode, func(ctx context.Context, hc *HookContext) error {
//	    log.Printf("%s -> %s", hc.Node, hc.Next)
//	    return nil
//	})
type FunctionHook struct {
	hookType HookType
	fn       func(ctx context.Context, hookCtx *HookContext) error
}

// NewFunctionHook creates a new function-based hook.
func NewFunctionHook(hookType HookType, fn func(ctx context.Context, hookCtx *HookContext) error) *FunctionHook {
	return &FunctionHook{hookType: hookType, fn: fn}
}

// Type returns the hook type this function handles.
func (h *FunctionHook) Type() HookType { return h.hookType }

// Execute calls the wrapped function.
func (h *FunctionHook) Execute(ctx context.Context, hookCtx *HookContext) error {
	return h.fn(ctx, hookCtx)
}

// HookManager is a registry of hooks executed in registration order. It is
// safe for concurrent registration and execution.
type HookManager struct {
	mu    sync.RWMutex
	hooks map[HookType][]Hook
}

// NewHookManager creates an empty hook manager.
func NewHookManager() *HookManager {
	return &HookManager{hooks: make(map[HookType][]Hook)}
}

// Register adds a hook for its type.
func (m *HookManager) Register(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[h.Type()] = append(m.hooks[h.Type()], h)
}

// Execute runs all hooks of hookType. The first error stops execution and is
// returned.
func (m *HookManager) Execute(ctx context.Context, hookType HookType, hookCtx *HookContext) error {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	hooks := m.hooks[hookType]
	m.mu.RUnlock()

	hookCtx.HookType = hookType
	for _, h := range hooks {
		if err := h.Execute(ctx, hookCtx); err != nil {
			return fmt.Errorf("%s hook: %w", hookType, err)
		}
	}
	return nil
}

// TraceRecorder is an AfterNode hook collecting every transition of every
// turn it observes, keyed by turn id.
type TraceRecorder struct {
	mu     sync.Mutex
	traces map[string][]string
}

// NewTraceRecorder creates an empty recorder.
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{traces: make(map[string][]string)}
}

// Type implements Hook.
func (r *TraceRecorder) Type() HookType { return HookAfterNode }

// Execute implements Hook.
func (r *TraceRecorder) Execute(_ context.Context, hc *HookContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces[hc.Turn.ID] = append(r.traces[hc.Turn.ID], fmt.Sprintf("%s->%s", hc.Node, hc.Next))
	return nil
}

// Trace returns the recorded transitions of a turn.
func (r *TraceRecorder) Trace(turnID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.traces[turnID]...)
}
