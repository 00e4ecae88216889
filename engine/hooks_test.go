package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voiceagent/core"
)

func TestHookManager(t *testing.T) {
	t.Run("runs hooks in registration order", func(t *testing.T) {
		var order []string
		m := NewHookManager()
		m.Register(NewFunctionHook(HookAfterNode, func(context.Context, *HookContext) error {
			order = append(order, "first")
			return nil
		}))
		m.Register(NewFunctionHook(HookAfterNode, func(context.Context, *HookContext) error {
			order = append(order, "second")
			return nil
		}))
		m.Register(NewFunctionHook(HookBeforeNode, func(context.Context, *HookContext) error {
			order = append(order, "before")
			return nil
		}))

		hc := &HookContext{Turn: &core.TurnState{ID: "t"}}
		require.NoError(t, m.Execute(context.Background(), HookAfterNode, hc))
		assert.Equal(t, []string{"first", "second"}, order)
		assert.Equal(t, HookAfterNode, hc.HookType)
	})

	t.Run("stops at the first error", func(t *testing.T) {
		called := false
		m := NewHookManager()
		m.Register(NewFunctionHook(HookBeforeNode, func(context.Context, *HookContext) error {
			return errors.New("denied")
		}))
		m.Register(NewFunctionHook(HookBeforeNode, func(context.Context, *HookContext) error {
			called = true
			return nil
		}))

		err := m.Execute(context.Background(), HookBeforeNode, &HookContext{})
		require.Error(t, err)
		assert.EqualError(t, err, "before_node hook: denied")
		assert.False(t, called)
	})

	t.Run("nil manager is a no-op", func(t *testing.T) {
		var m *HookManager
		assert.NoError(t, m.Execute(context.Background(), HookOnError, &HookContext{}))
	})
}

func TestTraceRecorder(t *testing.T) {
	r := NewTraceRecorder()
	assert.Equal(t, HookAfterNode, r.Type())

	turn := &core.TurnState{ID: "turn-1"}
	require.NoError(t, r.Execute(context.Background(), &HookContext{Turn: turn, Node: core.StatusSupervisor, Next: core.StatusOrchestrate}))
	require.NoError(t, r.Execute(context.Background(), &HookContext{Turn: turn, Node: core.StatusOrchestrate, Next: core.StatusRespond}))

	assert.Equal(t, []string{"supervisor->orchestrate", "orchestrate->respond"}, r.Trace("turn-1"))
	assert.Empty(t, r.Trace("other"))
}
