package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/voiceagent/core"
)

func TestPersonaBuilder(t *testing.T) {
	b := NewPersonaBuilder("Nova").ToolProne().Voice("v1").MaxIterations(2).IdentityKeywords("nova")
	cfg := b.Build()

	assert.Equal(t, "Nova", cfg.Name)
	assert.Equal(t, 100, cfg.Traits.Verbosity)
	assert.Equal(t, 0, cfg.Traits.Safety)
	assert.Equal(t, core.DefaultTraits.Empathy, cfg.Traits.Empathy)
	assert.True(t, cfg.Voice.Enabled)
	assert.Equal(t, 2, *cfg.MaxIterationsOverride)
	assert.NoError(t, cfg.Validate())

	cfg.IdentityKeywords[0] = "changed"
	assert.Equal(t, []string{"nova"}, b.Build().IdentityKeywords)
}

func TestThreadBuilder(t *testing.T) {
	msgs := NewThreadBuilder().User("hi").Assistant("hello").Build()
	assert.Equal(t, []core.Message{core.UserMessage("hi"), core.AssistantMessage("hello")}, msgs)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := Record(core.Namespace{Tenant: "t", Agent: "a"}, "m1", "x", core.MemoryPreference, time.Hour, now)
	assert.Equal(t, now.Add(-time.Hour), rec.CreatedAt)
}
