package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/logging"
	"github.com/hupe1980/voiceagent/memory"
	"github.com/hupe1980/voiceagent/persona"
	"github.com/hupe1980/voiceagent/router"
	"github.com/hupe1980/voiceagent/session"
	"github.com/hupe1980/voiceagent/tool"
)

// Config defines tuning parameters for the Engine.
type Config struct {
	// MaxConcurrentTurns bounds the turns running at once; 0 means unlimited.
	// Callers beyond the limit wait until a slot frees or their context ends.
	MaxConcurrentTurns int

	// CompletionTimeout bounds each completion call. A timeout fails the turn.
	CompletionTimeout time.Duration

	// SynthesisTimeout bounds each synthesis call. A timeout degrades the turn.
	SynthesisTimeout time.Duration

	// MemoryTimeout bounds thread reads and writes; ranker calls use the
	// ranker's own timeout.
	MemoryTimeout time.Duration

	// Context controls how retrieved memory is injected into the prompt.
	Context memory.ContextConfig
}

// DefaultConfig provides production-ready defaults.
var DefaultConfig = Config{
	MaxConcurrentTurns: 64,
	CompletionTimeout:  30 * time.Second,
	SynthesisTimeout:   30 * time.Second,
	MemoryTimeout:      5 * time.Second,
	Context:            memory.DefaultContextConfig,
}

// Options configures an Engine. Every collaborator except the Completer has
// an in-memory or stateless default.
type Options struct {
	Config Config

	// Completer produces responses. Required: turns fail with a
	// ConfigurationError without one.
	Completer core.Completer

	// Synthesizer renders audio when the persona enables voice. Optional.
	Synthesizer core.Synthesizer

	// AudioStore keeps synthesized clips by turn id. Optional.
	AudioStore core.AudioStore

	// Ranker retrieves and appends long-term memory.
	// Defaults to a ranker over memory.NewInMemoryStore.
	Ranker *memory.Ranker

	// Reinforcer applies feedback. Defaults to a reinforcer over Ranker.
	Reinforcer *memory.Reinforcer

	// Threads stores short-term conversation history.
	// Defaults to session.NewInMemoryStore.
	Threads core.ThreadStore

	Router  *router.Router
	Mapper  *persona.Mapper
	Prompt  *persona.PromptBuilder
	Toolbox *tool.Toolbox
	Hooks   *HookManager

	// Logger defaults to NoOp.
	Logger logging.Logger

	// Now is the engine clock; defaults to time.Now.
	Now func() time.Time
}

// Engine runs turns through the state machine
// Supervisor → MemoryRetrieval → Orchestrate → Respond → SynthesizeVoice →
// StoreMemory → Completed.
//
// Concurrency: each turn runs on its caller's goroutine and nodes within a
// turn never overlap. Many turns may run concurrently; they share only the
// memory and thread stores. The Engine is safe for concurrent use.
type Engine struct {
	config      Config
	completer   core.Completer
	synthesizer core.Synthesizer
	audio       core.AudioStore
	ranker      *memory.Ranker
	reinforcer  *memory.Reinforcer
	threads     core.ThreadStore
	router      *router.Router
	mapper      *persona.Mapper
	prompt      *persona.PromptBuilder
	toolbox     *tool.Toolbox
	hooks       *HookManager
	logger      logging.Logger
	now         func() time.Time

	slots chan struct{}

	activeTurns map[string]context.CancelFunc
	turnsMu     sync.Mutex
}

// New creates an Engine with defaults for unset collaborators.
//
// Example:
//
//	eng := New(func(o *Options) {
//	    o.Completer = openai.NewModel()
//	    o.Synthesizer = elevenlabs.New(func(o *elevenlabs.Options) { o.APIKey = key })
//	})
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)
	if opts.Ranker == nil {
		opts.Ranker = memory.NewRanker(memory.NewInMemoryStore(), func(o *memory.RankerOptions) { o.Logger = logger })
	}
	if opts.Reinforcer == nil {
		opts.Reinforcer = memory.NewReinforcer(opts.Ranker, func(o *memory.ReinforcerOptions) { o.Logger = logger })
	}
	if opts.Threads == nil {
		opts.Threads = session.NewInMemoryStore(0)
	}
	if opts.Router == nil {
		opts.Router = router.New(func(o *router.Options) { o.Logger = logger })
	}
	if opts.Mapper == nil {
		opts.Mapper = persona.NewMapper()
	}
	if opts.Prompt == nil {
		opts.Prompt = persona.NewPromptBuilder("")
	}
	if opts.Hooks == nil {
		opts.Hooks = NewHookManager()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var slots chan struct{}
	if opts.Config.MaxConcurrentTurns > 0 {
		slots = make(chan struct{}, opts.Config.MaxConcurrentTurns)
	}

	return &Engine{
		config:      opts.Config,
		completer:   opts.Completer,
		synthesizer: opts.Synthesizer,
		audio:       opts.AudioStore,
		ranker:      opts.Ranker,
		reinforcer:  opts.Reinforcer,
		threads:     opts.Threads,
		router:      opts.Router,
		mapper:      opts.Mapper,
		prompt:      opts.Prompt,
		toolbox:     opts.Toolbox,
		hooks:       opts.Hooks,
		logger:      logger,
		now:         opts.Now,
		slots:       slots,
		activeTurns: make(map[string]context.CancelFunc),
	}
}

// Ranker returns the engine's memory ranker.
func (e *Engine) Ranker() *memory.Ranker { return e.ranker }

// Reinforcer returns the engine's feedback reinforcer.
func (e *Engine) Reinforcer() *memory.Reinforcer { return e.reinforcer }

// Hooks returns the hook registry.
func (e *Engine) Hooks() *HookManager { return e.hooks }

// Run drives s until it reaches Completed or Error and returns it.
//
// Run never blocks indefinitely: every collaborator call carries a timeout
// and the loop is bounded by the iteration cap plus a transition budget.
func (e *Engine) Run(ctx context.Context, s *core.TurnState) *core.TurnState {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.StartedAt = e.now()
	s.Status = core.StatusSupervisor
	s.Trace = append(s.Trace[:0], core.StatusSupervisor)
	log := logging.ForTurn(e.logger, s.ID, s.SessionID, s.Namespace().String())

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := e.acquire(turnCtx); err != nil {
		s.Status = s.Fail(core.UpstreamCriticalError, "turn canceled before start", err)
		s.Trace = append(s.Trace, s.Status)
		return e.finish(turnCtx, s, log)
	}
	defer e.release()

	e.track(s.ID, cancel)
	defer e.untrack(s.ID)

	if e.reinforcer != nil && s.Adjustments == (core.Adjustments{}) {
		s.Adjustments = e.reinforcer.Adjustments(s.SessionID)
	}

	maxIterations := 1
	if s.Config != nil {
		maxIterations = e.mapper.ForAgent(s.Config, s.Adjustments).MaxIterations
	}
	budget := core.NewStepBudget(core.StepBound(maxIterations))

	for !s.Status.Terminal() {
		from := s.Status
		next := e.advance(turnCtx, s, log)

		if !Legal(from, next) {
			next = s.Fail(core.ConfigurationError, fmt.Sprintf("illegal transition %s -> %s", from, next), nil)
		}
		if err := budget.Increment(); err != nil && !next.Terminal() {
			log.Warn("turn.step_budget_exhausted", "error", err.Error())
			s.BudgetExhausted = true
			next = core.StatusCompleted
		}

		log.LogTransition(from, next, s.IterationCount)
		if err := e.hooks.Execute(turnCtx, HookAfterNode, &HookContext{Turn: s, Node: from, Next: next}); err != nil {
			log.Warn("turn.hook_failed", "error", err.Error())
		}

		s.Status = next
		s.Trace = append(s.Trace, next)
	}

	return e.finish(turnCtx, s, log)
}

// advance runs the current node and returns the successor.
func (e *Engine) advance(ctx context.Context, s *core.TurnState, log logging.TurnLogger) core.Status {
	if err := ctx.Err(); err != nil {
		return s.Fail(core.UpstreamCriticalError, "turn canceled", err)
	}
	if err := e.hooks.Execute(ctx, HookBeforeNode, &HookContext{Turn: s, Node: s.Status}); err != nil {
		return s.Fail(core.ConfigurationError, "turn rejected by hook", err)
	}

	switch s.Status {
	case core.StatusSupervisor:
		return e.supervise(s)
	case core.StatusMemoryRetrieval:
		return e.retrieveMemory(ctx, s, log)
	case core.StatusOrchestrate:
		return e.orchestrate(ctx, s, log)
	case core.StatusRespond:
		return e.respond(ctx, s, log)
	case core.StatusSynthesizeVoice:
		return e.synthesizeVoice(ctx, s, log)
	case core.StatusStoreMemory:
		return e.storeMemory(ctx, s, log)
	default:
		return s.Fail(core.ConfigurationError, fmt.Sprintf("unknown status %s", s.Status), nil)
	}
}

func (e *Engine) finish(ctx context.Context, s *core.TurnState, log logging.TurnLogger) *core.TurnState {
	s.CompletedAt = e.now()
	if s.Status == core.StatusError {
		if err := e.hooks.Execute(ctx, HookOnError, &HookContext{Turn: s, Node: s.Status}); err != nil {
			log.Warn("turn.hook_failed", "error", err.Error())
		}
		log.Error("turn.failed", "kind", s.Err.Kind.String(), "error", s.Err.Error(), "duration", s.CompletedAt.Sub(s.StartedAt))
		return s
	}
	log.Info("turn.completed",
		"tokens", s.TokensUsed,
		"iterations", s.IterationCount,
		"degraded", s.Degraded,
		"budget_exhausted", s.BudgetExhausted,
		"warnings", len(s.Warnings),
		"duration", s.CompletedAt.Sub(s.StartedAt),
	)
	return s
}

// StopTurn cancels a running turn. The turn ends in Error with an
// UpstreamCriticalError once its current node returns.
func (e *Engine) StopTurn(turnID string) error {
	e.turnsMu.Lock()
	cancel, ok := e.activeTurns[turnID]
	e.turnsMu.Unlock()
	if !ok {
		return fmt.Errorf("turn %s not found", turnID)
	}
	cancel()
	return nil
}

// ActiveTurns returns the number of running turns.
func (e *Engine) ActiveTurns() int {
	e.turnsMu.Lock()
	defer e.turnsMu.Unlock()
	return len(e.activeTurns)
}

func (e *Engine) track(id string, cancel context.CancelFunc) {
	e.turnsMu.Lock()
	defer e.turnsMu.Unlock()
	e.activeTurns[id] = cancel
}

func (e *Engine) untrack(id string) {
	e.turnsMu.Lock()
	defer e.turnsMu.Unlock()
	delete(e.activeTurns, id)
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.slots == nil {
		return nil
	}
	select {
	case e.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) release() {
	if e.slots != nil {
		<-e.slots
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
