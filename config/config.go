// Package config loads process configuration for the voiceagent binaries
// from a YAML, TOML or JSON file and VOICEAGENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/voiceagent/logging"
)

// EnvPrefix prefixes every environment variable, e.g. VOICEAGENT_MODEL_PROVIDER.
const EnvPrefix = "VOICEAGENT"

// Config represents the full voiceagent configuration.
type Config struct {
	Tenant  string       `mapstructure:"tenant"`
	Agent   string       `mapstructure:"agent"`
	Persona string       `mapstructure:"persona"`
	Model   ModelConfig  `mapstructure:"model"`
	Memory  MemoryConfig `mapstructure:"memory"`
	Voice   VoiceConfig  `mapstructure:"voice"`
	Engine  EngineConfig `mapstructure:"engine"`
	Server  ServerConfig `mapstructure:"server"`
	Log     LogConfig    `mapstructure:"log"`
}

// ModelConfig selects the completion service.
type ModelConfig struct {
	Provider  string `mapstructure:"provider"` // openai, anthropic or mock
	Name      string `mapstructure:"name"`
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// MemoryConfig selects the long-term memory backend.
type MemoryConfig struct {
	Backend       string `mapstructure:"backend"` // memory, sqlite or chromem
	Path          string `mapstructure:"path"`
	Embedder      string `mapstructure:"embedder"` // hashing or openai
	EmbedderModel string `mapstructure:"embedder_model"`
	Dimensions    int    `mapstructure:"dimensions"`
	CacheMaxCost  int64  `mapstructure:"cache_max_cost"`
	MaxThread     int    `mapstructure:"max_thread"`
}

// VoiceConfig selects the speech synthesis service.
type VoiceConfig struct {
	Provider string `mapstructure:"provider"` // elevenlabs, mock or none
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// EngineConfig holds the turn timeouts and concurrency.
type EngineConfig struct {
	CompletionTimeout  time.Duration `mapstructure:"completion_timeout"`
	SynthesisTimeout   time.Duration `mapstructure:"synthesis_timeout"`
	MemoryTimeout      time.Duration `mapstructure:"memory_timeout"`
	MaxConcurrentTurns int           `mapstructure:"max_concurrent_turns"`
}

// ServerConfig configures the websocket transport.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	Path           string   `mapstructure:"path"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

var defaults = map[string]any{
	"tenant":                      "default",
	"agent":                       "assistant",
	"persona":                     "",
	"model.provider":              "openai",
	"model.name":                  "",
	"model.api_key":               "",
	"model.base_url":              "",
	"model.max_tokens":            1024,
	"memory.backend":              "memory",
	"memory.path":                 "voiceagent.db",
	"memory.embedder":             "hashing",
	"memory.embedder_model":       "",
	"memory.dimensions":           384,
	"memory.cache_max_cost":       1 << 26,
	"memory.max_thread":           100,
	"voice.provider":              "none",
	"voice.api_key":               "",
	"voice.base_url":              "",
	"engine.completion_timeout":   "30s",
	"engine.synthesis_timeout":    "30s",
	"engine.memory_timeout":       "5s",
	"engine.max_concurrent_turns": 64,
	"server.addr":                 ":8080",
	"server.path":                 "/ws",
	"server.allowed_origins":      []string{},
	"log.level":                   "info",
	"log.format":                  "text",
}

// NewViper returns a viper instance with defaults and environment binding.
// cfgFile may be empty, in which case ./voiceagent.{yaml,toml,json} is used
// when present.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("voice.api_key", EnvPrefix+"_VOICE_API_KEY", "ELEVENLABS_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
		return v, nil
	}

	v.AddConfigPath(".")
	v.SetConfigName("voiceagent")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from file and environment.
func Load(cfgFile string) (*Config, error) {
	v, err := NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Tenant) == "" || strings.TrimSpace(c.Agent) == "" {
		return fmt.Errorf("tenant and agent are required")
	}

	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("invalid model provider: %s (must be openai, anthropic or mock)", c.Model.Provider)
	}

	switch c.Memory.Backend {
	case "memory", "chromem":
	case "sqlite":
		if c.Memory.Path == "" {
			return fmt.Errorf("memory path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid memory backend: %s (must be memory, sqlite or chromem)", c.Memory.Backend)
	}

	switch c.Memory.Embedder {
	case "hashing", "openai":
	default:
		return fmt.Errorf("invalid embedder: %s (must be hashing or openai)", c.Memory.Embedder)
	}

	switch c.Voice.Provider {
	case "none", "mock", "elevenlabs":
	default:
		return fmt.Errorf("invalid voice provider: %s (must be elevenlabs, mock or none)", c.Voice.Provider)
	}

	if c.Engine.CompletionTimeout <= 0 || c.Engine.SynthesisTimeout <= 0 || c.Engine.MemoryTimeout <= 0 {
		return fmt.Errorf("engine timeouts must be positive")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Log.Format)
	}

	return nil
}

// Logger builds the process logger described by the log section.
func (c *Config) Logger(w io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.New(level, c.Log.Format, w)
}
