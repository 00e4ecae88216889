package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Hi {{.Name}} & {{upper .Role}}: {{join \", \" .Items}}", map[string]any{
		"Name":  "Ada",
		"Role":  "guide",
		"Items": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada & GUIDE: a, b", out)
}

func TestRenderTemplate_FastPath(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("{{.Name", map[string]any{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate(5, "abc"))
	assert.Equal(t, "ab...", Truncate(2, "abcdef"))
	assert.Equal(t, "héll...", Truncate(4, "héllo wörld"))
	assert.Equal(t, "abc", Truncate(0, "abc"))
}
