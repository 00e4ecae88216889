package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "openai", cfg.Model.Provider)
		assert.Equal(t, "memory", cfg.Memory.Backend)
		assert.Equal(t, "hashing", cfg.Memory.Embedder)
		assert.Equal(t, "none", cfg.Voice.Provider)
		assert.Equal(t, 30*time.Second, cfg.Engine.CompletionTimeout)
		assert.Equal(t, 5*time.Second, cfg.Engine.MemoryTimeout)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "/ws", cfg.Server.Path)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := writeFile(t, "voiceagent.yaml", `
tenant: acme
agent: nova
persona: personas/nova.yaml
model:
  provider: anthropic
  name: claude-3-5-haiku-latest
memory:
  backend: sqlite
  path: /tmp/nova.db
voice:
  provider: elevenlabs
engine:
  completion_timeout: 12s
log:
  level: debug
  format: json
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "acme", cfg.Tenant)
		assert.Equal(t, "nova", cfg.Agent)
		assert.Equal(t, "personas/nova.yaml", cfg.Persona)
		assert.Equal(t, "anthropic", cfg.Model.Provider)
		assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model.Name)
		assert.Equal(t, "sqlite", cfg.Memory.Backend)
		assert.Equal(t, "/tmp/nova.db", cfg.Memory.Path)
		assert.Equal(t, "elevenlabs", cfg.Voice.Provider)
		assert.Equal(t, 12*time.Second, cfg.Engine.CompletionTimeout)
		assert.Equal(t, 30*time.Second, cfg.Engine.SynthesisTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeFile(t, "voiceagent.yaml", "model:\n  provider: anthropic\n")
		t.Setenv("VOICEAGENT_MODEL_PROVIDER", "mock")
		t.Setenv("VOICEAGENT_SERVER_ADDR", ":9090")
		t.Setenv("ELEVENLABS_API_KEY", "xi-key")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "mock", cfg.Model.Provider)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, "xi-key", cfg.Voice.APIKey)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"model provider", "model:\n  provider: gemini\n", "invalid model provider"},
		{"memory backend", "memory:\n  backend: redis\n", "invalid memory backend"},
		{"embedder", "memory:\n  embedder: onnx\n", "invalid embedder"},
		{"voice provider", "voice:\n  provider: polly\n", "invalid voice provider"},
		{"timeout", "engine:\n  completion_timeout: 0s\n", "timeouts must be positive"},
		{"log level", "log:\n  level: loud\n", "unknown log level"},
		{"log format", "log:\n  format: xml\n", "invalid log format"},
		{"tenant", "tenant: \"\"\n", "tenant and agent are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "voiceagent.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigLogger(t *testing.T) {
	cfg, err := Load(writeFile(t, "voiceagent.yaml", "log:\n  level: warn\n  format: json\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
