package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/voiceagent/core"
)

func TestBuildContext(t *testing.T) {
	thread := []core.Message{core.UserMessage("hi"), core.AssistantMessage("hello!")}
	memories := []ScoredMemory{
		{Record: core.MemoryRecord{Type: core.MemoryPreference, Content: strings.Repeat("x", 300)}},
		{Record: core.MemoryRecord{Type: core.MemoryIdentity, Content: "name is Sam"}},
		{Record: core.MemoryRecord{Type: core.MemoryConversation, Content: "asked about rome"}},
		{Record: core.MemoryRecord{Type: core.MemoryConversation, Content: "fourth"}},
	}

	c := BuildContext(DefaultContextConfig, thread, memories, 0)

	assert.Equal(t, "user: hi\nassistant: hello!", c.ShortTerm)
	lines := strings.Split(c.Persistent, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "- [preference] "+strings.Repeat("x", 200)+"...", lines[0])
	assert.Equal(t, "- [identity] name is Sam", lines[1])
	assert.Equal(t, "Context: 2 recent messages, 4 relevant memories", c.Summary)
	assert.InDelta(t, 0.5+0.04+0.2, c.Confidence, 1e-9)
}

func TestBuildContext_WindowAndConfidenceBounds(t *testing.T) {
	var thread []core.Message
	for i := 0; i < 30; i++ {
		thread = append(thread, core.UserMessage("m"))
	}
	memories := make([]ScoredMemory, 10)

	c := BuildContext(DefaultContextConfig, thread, memories, 0.4)
	assert.Equal(t, 20, strings.Count(c.ShortTerm, "user: m"))
	assert.Equal(t, 1.0, c.Confidence)

	empty := BuildContext(DefaultContextConfig, nil, nil, -0.9)
	assert.Equal(t, 0.0, empty.Confidence)
	assert.Empty(t, empty.ShortTerm)
	assert.Empty(t, empty.Persistent)
}
