package cli

import (
	"fmt"
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	openaisdk "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"

	voiceagent "github.com/hupe1980/voiceagent"
	"github.com/hupe1980/voiceagent/config"
	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/engine"
	"github.com/hupe1980/voiceagent/logging"
	"github.com/hupe1980/voiceagent/memory/chromem"
	"github.com/hupe1980/voiceagent/memory/embedder"
	"github.com/hupe1980/voiceagent/memory/sqlite"
	"github.com/hupe1980/voiceagent/model"
	"github.com/hupe1980/voiceagent/model/anthropic"
	"github.com/hupe1980/voiceagent/model/openai"
	"github.com/hupe1980/voiceagent/persona"
	"github.com/hupe1980/voiceagent/session"
	"github.com/hupe1980/voiceagent/tool"
	"github.com/hupe1980/voiceagent/voice"
	"github.com/hupe1980/voiceagent/voice/elevenlabs"
)

// app is a fully wired agent with the persona it serves.
type app struct {
	cfg     *config.Config
	persona *core.AgentConfig
	agent   *voiceagent.VoiceAgent
	logger  logging.Logger
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func loadPersona(cfg *config.Config) (*core.AgentConfig, error) {
	if cfg.Persona == "" {
		return &core.AgentConfig{
			Name:             "Assistant",
			ShortDescription: "a helpful voice assistant",
			Traits:           core.DefaultTraits,
		}, nil
	}
	return persona.LoadFile(cfg.Persona)
}

func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := cfg.Logger(logOut)

	p, err := loadPersona(cfg)
	if err != nil {
		return nil, err
	}

	completer, err := newCompleter(cfg.Model)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	store, storeClosers, err := newMemoryStore(cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, storeClosers...)

	toolbox := tool.NewToolbox(func(o *tool.ToolboxOptions) { o.Logger = logger })
	if err := toolbox.Register(tool.NewClockTool(nil), tool.ClockTriggers...); err != nil {
		return nil, err
	}
	if err := toolbox.Register(tool.NewCalculatorTool(), tool.CalculatorTriggers...); err != nil {
		return nil, err
	}

	agent := voiceagent.New(func(o *voiceagent.Options) {
		o.EngineConfig = engine.DefaultConfig
		o.EngineConfig.CompletionTimeout = cfg.Engine.CompletionTimeout
		o.EngineConfig.SynthesisTimeout = cfg.Engine.SynthesisTimeout
		o.EngineConfig.MemoryTimeout = cfg.Engine.MemoryTimeout
		o.EngineConfig.MaxConcurrentTurns = cfg.Engine.MaxConcurrentTurns
		o.Completer = completer
		o.Synthesizer = newSynthesizer(cfg.Voice)
		o.MemoryStore = store
		o.ThreadStore = session.NewInMemoryStore(cfg.Memory.MaxThread)
		o.Toolbox = toolbox
		o.Closers = closers
		o.Logger = logger
	})

	return &app{cfg: cfg, persona: p, agent: agent, logger: logger}, nil
}

func newCompleter(mc config.ModelConfig) (core.Completer, error) {
	switch mc.Provider {
	case "mock":
		return model.NewMockModel("mock"), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			if mc.APIKey != "" {
				o.RequestOptions = append(o.RequestOptions, ooption.WithAPIKey(mc.APIKey))
			}
			if mc.BaseURL != "" {
				o.RequestOptions = append(o.RequestOptions, ooption.WithBaseURL(mc.BaseURL))
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
			o.APIKey = mc.APIKey
			if mc.BaseURL != "" {
				o.RequestOptions = append(o.RequestOptions, aoption.WithBaseURL(mc.BaseURL))
			}
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", mc.Provider)
	}
}

func newSynthesizer(vc config.VoiceConfig) core.Synthesizer {
	switch vc.Provider {
	case "mock":
		return voice.NewMockSynthesizer()
	case "elevenlabs":
		return elevenlabs.New(func(o *elevenlabs.Options) {
			o.APIKey = vc.APIKey
			if vc.BaseURL != "" {
				o.BaseURL = vc.BaseURL
			}
		})
	default:
		return nil
	}
}

func newEmbedder(cfg *config.Config) (core.Embedder, io.Closer, error) {
	var next core.Embedder
	switch cfg.Memory.Embedder {
	case "openai":
		next = embedder.NewOpenAI(func(o *embedder.OpenAIOptions) {
			if cfg.Memory.EmbedderModel != "" {
				o.Model = openaisdk.EmbeddingModel(cfg.Memory.EmbedderModel)
			}
			if cfg.Model.Provider == "openai" && cfg.Model.APIKey != "" {
				o.RequestOptions = append(o.RequestOptions, ooption.WithAPIKey(cfg.Model.APIKey))
			}
		})
	default:
		next = embedder.NewHashing(cfg.Memory.Dimensions)
	}

	cached, err := embedder.NewCached(next, func(o *embedder.CacheOptions) {
		if cfg.Memory.CacheMaxCost > 0 {
			o.MaxCost = cfg.Memory.CacheMaxCost
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return cached, closerFunc(func() error { cached.Close(); return nil }), nil
}

func newMemoryStore(cfg *config.Config) (core.MemoryStore, []io.Closer, error) {
	switch cfg.Memory.Backend {
	case "sqlite":
		emb, closer, err := newEmbedder(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := sqlite.NewStore(cfg.Memory.Path, func(o *sqlite.Options) { o.Embedder = emb })
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		return store, []io.Closer{closer}, nil
	case "chromem":
		emb, closer, err := newEmbedder(cfg)
		if err != nil {
			return nil, nil, err
		}
		return chromem.New(emb), []io.Closer{closer}, nil
	default:
		return nil, nil, nil
	}
}
