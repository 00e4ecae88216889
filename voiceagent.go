// Package voiceagent provides a high-level façade over the turn engine and
// its collaborators (completion, synthesis, memory and session stores)
// for building persona-driven voice agents. Most applications interact with
// this package by:
//  1. Creating a VoiceAgent via New(), supplying at least a Completer
//  2. Calling ProcessTurn once per user utterance
//  3. Reporting user reactions with SubmitFeedback
//
// The façade delegates orchestration to engine.Engine. Unset stores default
// to in-memory implementations, which are safe for local development and
// testing; production deployments typically supply a durable MemoryStore
// and a structured logger.
package voiceagent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/voiceagent/artifact"
	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/engine"
	"github.com/hupe1980/voiceagent/logging"
	"github.com/hupe1980/voiceagent/memory"
	"github.com/hupe1980/voiceagent/session"
	"github.com/hupe1980/voiceagent/tool"
)

// Options configures the VoiceAgent instance.
type Options struct {
	// EngineConfig holds timeouts, concurrency and context injection settings.
	EngineConfig engine.Config

	// Completer produces responses. Required.
	Completer core.Completer

	// Synthesizer renders audio for personas with voice enabled. Optional.
	Synthesizer core.Synthesizer

	// Stores (default to in-memory implementations if not provided)
	MemoryStore core.MemoryStore
	ThreadStore core.ThreadStore
	AudioStore  core.AudioStore

	RankerConfig     memory.RankerConfig
	ReinforcerConfig memory.ReinforcerConfig

	// Toolbox is consulted on turns routed to tool use. Optional.
	Toolbox *tool.Toolbox

	// Closers are released by Close after the memory store, e.g. an
	// embedding cache owned by the caller's setup code.
	Closers []io.Closer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// VoiceAgent is the high-level façade aggregating the engine and services.
type VoiceAgent struct {
	opts   Options
	engine *engine.Engine
}

// TurnRequest is the input of one conversational turn.
type TurnRequest struct {
	TenantID  string
	AgentID   string
	SessionID string

	// Config is the persona the turn runs with.
	Config *core.AgentConfig

	// Utterance is the recognized user text.
	Utterance string

	// PriorContext precedes the utterance in the completion request.
	PriorContext []core.Message

	// Feedback about the previous response, applied after the turn's
	// memory is stored.
	Feedback *core.Feedback
}

// New creates a new VoiceAgent with optional overrides. Any unset store is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *VoiceAgent {
	opts := Options{
		EngineConfig:     engine.DefaultConfig,
		RankerConfig:     memory.DefaultRankerConfig,
		ReinforcerConfig: memory.DefaultReinforcerConfig,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MemoryStore == nil {
		opts.MemoryStore = memory.NewInMemoryStore()
	}
	if opts.AudioStore == nil {
		opts.AudioStore = artifact.NewInMemoryStore(artifact.DefaultMaxClipsPerSession)
	}
	if opts.ThreadStore == nil {
		opts.ThreadStore = session.NewInMemoryStore(session.DefaultMaxThreadLength)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	ranker := memory.NewRanker(opts.MemoryStore, func(o *memory.RankerOptions) {
		o.Config = opts.RankerConfig
		o.Logger = opts.Logger
	})
	reinforcer := memory.NewReinforcer(ranker, func(o *memory.ReinforcerOptions) {
		o.Config = opts.ReinforcerConfig
		o.Logger = opts.Logger
	})

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Completer = opts.Completer
		o.Synthesizer = opts.Synthesizer
		o.AudioStore = opts.AudioStore
		o.Ranker = ranker
		o.Reinforcer = reinforcer
		o.Threads = opts.ThreadStore
		o.Toolbox = opts.Toolbox
		o.Logger = opts.Logger
	})

	return &VoiceAgent{opts: opts, engine: e}
}

// Engine returns the underlying turn engine.
func (a *VoiceAgent) Engine() *engine.Engine { return a.engine }

// RegisterHook adds a lifecycle hook to every subsequent turn.
func (a *VoiceAgent) RegisterHook(h engine.Hook) { a.engine.Hooks().Register(h) }

// ProcessTurn runs one turn to a terminal state. The returned state is never
// nil. The error is non-nil exactly when the turn ended in Error, and is the
// state's *core.TurnError.
func (a *VoiceAgent) ProcessTurn(ctx context.Context, req TurnRequest) (*core.TurnState, error) {
	s := core.NewTurnState(req.TenantID, req.AgentID, req.SessionID, req.Config, req.Utterance, req.PriorContext)
	if req.Feedback != nil {
		fb := *req.Feedback
		s.PendingFeedback = &fb
	}

	s = a.engine.Run(ctx, s)
	if s.Status == core.StatusError {
		return s, s.Err
	}
	return s, nil
}

// SubmitFeedback applies feedback outside a turn: it reinforces the target
// memory, updates the session's adjustments and records the event.
func (a *VoiceAgent) SubmitFeedback(ctx context.Context, tenantID, agentID string, fb core.Feedback) (memory.Outcome, error) {
	ns := core.Namespace{Tenant: tenantID, Agent: agentID}
	if !ns.Valid() {
		return memory.Outcome{}, fmt.Errorf("submit feedback: %w", core.ErrInvalidIdentifiers)
	}
	return a.engine.Reinforcer().Apply(ctx, ns, fb)
}

// Clip returns the audio synthesized for a turn, while it is retained.
func (a *VoiceAgent) Clip(ctx context.Context, sessionID, turnID string) ([]byte, error) {
	return a.opts.AudioStore.Get(ctx, sessionID, turnID)
}

// Adjustments returns the behavioral adjustments accumulated for a session.
func (a *VoiceAgent) Adjustments(sessionID string) core.Adjustments {
	return a.engine.Reinforcer().Adjustments(sessionID)
}

// Close releases the memory store (when it holds resources) and the
// configured closers.
func (a *VoiceAgent) Close() error {
	var errs []error
	if c, ok := a.opts.MemoryStore.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	for _, c := range a.opts.Closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
