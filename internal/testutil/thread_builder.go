package testutil

import (
	"time"

	"github.com/hupe1980/voiceagent/core"
)

// ThreadBuilder helps construct message histories with fluent chaining.
// Example:
//
//	msgs := NewThreadBuilder().User("hi").Assistant("hello").Build()
type ThreadBuilder struct {
	msgs []core.Message
}

// NewThreadBuilder creates an empty builder.
func NewThreadBuilder() *ThreadBuilder { return &ThreadBuilder{} }

// User appends a user message (chainable).
func (b *ThreadBuilder) User(content string) *ThreadBuilder {
	b.msgs = append(b.msgs, core.UserMessage(content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *ThreadBuilder) Assistant(content string) *ThreadBuilder {
	b.msgs = append(b.msgs, core.AssistantMessage(content))
	return b
}

// Build returns a copy of the accumulated messages.
func (b *ThreadBuilder) Build() []core.Message {
	return append([]core.Message(nil), b.msgs...)
}

// Record builds a memory record in ns created age before now.
func Record(ns core.Namespace, id, content string, typ core.MemoryType, age time.Duration, now time.Time) core.MemoryRecord {
	return core.MemoryRecord{
		ID:        id,
		Namespace: ns,
		Content:   content,
		Type:      typ,
		CreatedAt: now.Add(-age),
	}
}
