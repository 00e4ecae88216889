package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/logging"
	"github.com/hupe1980/voiceagent/memory"
	"github.com/hupe1980/voiceagent/persona"
	"github.com/hupe1980/voiceagent/voice"
)

// supervise validates the turn and decides whether context must be loaded.
func (e *Engine) supervise(s *core.TurnState) core.Status {
	if err := s.Config.Validate(); err != nil {
		return s.Fail(core.ConfigurationError, "invalid agent configuration", err)
	}
	if !s.Namespace().Valid() || strings.TrimSpace(s.SessionID) == "" {
		return s.Fail(core.ConfigurationError, "invalid identifiers", core.ErrInvalidIdentifiers)
	}
	if e.completer == nil {
		return s.Fail(core.ConfigurationError, "no completion service configured", nil)
	}
	if !s.ContextLoaded && !s.HasUserMessage() {
		return s.Fail(core.ConfigurationError, "turn has no user message", core.ErrEmptyUtterance)
	}

	if strings.TrimSpace(s.Utterance) == "" {
		s.Utterance = s.Messages[len(s.Messages)-1].Content
	}

	s.Params = e.mapper.ForAgent(s.Config, s.Adjustments)
	if s.IterationCount >= s.Params.MaxIterations {
		s.BudgetExhausted = true
		return core.StatusCompleted
	}
	if !s.ContextLoaded {
		return core.StatusMemoryRetrieval
	}
	return core.StatusOrchestrate
}

// retrieveMemory loads the short-term thread and ranked long-term memory in
// parallel. Failures leave the corresponding context empty.
func (e *Engine) retrieveMemory(ctx context.Context, s *core.TurnState, log logging.TurnLogger) core.Status {
	var (
		thread             []core.Message
		scored             []memory.ScoredMemory
		threadErr, rankErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		tctx, cancel := withTimeout(ctx, e.config.MemoryTimeout)
		defer cancel()
		thread, threadErr = e.threads.Recent(tctx, s.SessionID, e.config.Context.ThreadWindow)
		return nil
	})
	g.Go(func() error {
		scored, rankErr = e.ranker.Search(ctx, memory.Request{
			Namespace:        s.Namespace(),
			Query:            s.Utterance,
			IdentityKeywords: s.Config.IdentityKeywords,
		})
		return nil
	})
	_ = g.Wait()

	if threadErr != nil {
		log.LogDegraded("thread", core.UpstreamDegradableError.String(), threadErr)
		s.Warn(core.UpstreamDegradableError, "thread retrieval failed", threadErr)
		thread = nil
	}
	if rankErr != nil {
		log.LogDegraded("memory_retrieval", core.UpstreamDegradableError.String(), rankErr)
		s.Warn(core.UpstreamDegradableError, "memory retrieval failed", rankErr)
		scored = nil
	}

	// The caller's prior context stands in for a thread the store has not seen.
	if len(thread) == 0 {
		thread = s.Messages
		if s.HasUserMessage() {
			thread = thread[:len(thread)-1]
		}
	}

	mc := memory.BuildContext(e.config.Context, thread, scored, s.Adjustments.Confidence)
	s.ShortTermContext = mc.ShortTerm
	s.PersistentContext = mc.Persistent
	s.ContextSummary = mc.Summary
	s.ContextConfidence = mc.Confidence
	s.Recalled = memory.Records(scored)
	s.ContextLoaded = true
	return core.StatusOrchestrate
}

// orchestrate routes the utterance, runs tools when budget remains and
// renders the system instructions.
func (e *Engine) orchestrate(ctx context.Context, s *core.TurnState, log logging.TurnLogger) core.Status {
	traits := s.Adjustments.ApplyTo(s.Config.Traits)
	route := e.router.Route(s.Utterance, s.Params.ToolRoutingThreshold, traits.Norm(core.TraitSafety))
	s.Route = &route

	if route.UseTools && !s.ToolsRan && e.toolbox != nil && e.toolbox.Len() > 0 {
		if s.IterationCount+1 >= s.Params.MaxIterations {
			log.Debug("turn.tools_skipped", "reason", "iteration cap")
		} else {
			s.Observations = e.toolbox.Run(ctx, s.Utterance)
			for _, obs := range s.Observations {
				if obs.Error != "" {
					s.Warn(core.UpstreamDegradableError, fmt.Sprintf("tool %s failed", obs.Tool), errors.New(obs.Error))
				}
			}
			s.ToolsRan = true
			s.NextAction = core.ActionIterate
			s.IterationCount++
			return core.StatusSupervisor
		}
	}

	if route.UseTools {
		s.NextAction = core.ActionUseTools
	} else {
		s.NextAction = core.ActionGenerateResponse
	}

	instructions, err := e.prompt.Build(persona.PromptInput{
		Config:         s.Config,
		Traits:         traits,
		Params:         s.Params,
		ContextSummary: s.ContextSummary,
		ShortTerm:      s.ShortTermContext,
		Persistent:     s.PersistentContext,
		Observations:   s.Observations,
		ToolsSuggested: route.UseTools,
	})
	if err != nil {
		log.Warn("turn.prompt_fallback", "error", err.Error())
	}
	s.Instructions = instructions
	return core.StatusRespond
}

// respond calls the completion service. Any failure is fatal to the turn.
func (e *Engine) respond(ctx context.Context, s *core.TurnState, log logging.TurnLogger) core.Status {
	cctx, cancel := withTimeout(ctx, e.config.CompletionTimeout)
	defer cancel()

	msgs := make([]core.Message, 0, len(s.Messages)+1)
	msgs = append(msgs, core.SystemMessage(s.Instructions))
	msgs = append(msgs, s.Messages...)

	start := time.Now()
	res, err := e.completer.Complete(cctx, core.CompletionRequest{
		Messages:    msgs,
		MaxTokens:   s.Params.MaxTokens,
		Temperature: s.Params.Temperature,
		TopP:        s.Params.NucleusP,
	})
	if err == nil && cctx.Err() != nil {
		err = cctx.Err()
	}
	if err != nil {
		log.LogCompletion(0, time.Since(start), err)
		if errors.Is(err, context.DeadlineExceeded) {
			return s.Fail(core.UpstreamCriticalError, "completion timed out", err)
		}
		return s.Fail(core.UpstreamCriticalError, "completion failed", err)
	}
	if res == nil || strings.TrimSpace(res.Content) == "" {
		log.LogCompletion(0, time.Since(start), core.ErrEmptyCompletion)
		return s.Fail(core.UpstreamCriticalError, "completion returned no text", core.ErrEmptyCompletion)
	}
	log.LogCompletion(res.TokensUsed, time.Since(start), nil)

	s.Response = res.Content
	s.TokensUsed += res.TokensUsed
	s.Messages = append(s.Messages, core.AssistantMessage(res.Content))

	if s.Config.Voice.Enabled {
		return core.StatusSynthesizeVoice
	}
	return core.StatusStoreMemory
}

// synthesizeVoice renders the response to audio. Failures degrade the turn
// to text only.
func (e *Engine) synthesizeVoice(ctx context.Context, s *core.TurnState, log logging.TurnLogger) core.Status {
	if e.synthesizer == nil {
		log.LogDegraded("synthesis", core.UpstreamDegradableError.String(), errNoSynthesizer)
		s.Warn(core.UpstreamDegradableError, "voice requested without a synthesizer", errNoSynthesizer)
		return core.StatusStoreMemory
	}

	sctx, cancel := withTimeout(ctx, e.config.SynthesisTimeout)
	defer cancel()

	settings := persona.VoiceFor(s.Adjustments.ApplyTo(s.Config.Traits), s.Config.Voice)
	start := time.Now()
	audio, err := e.synthesizer.Synthesize(sctx, voice.CleanText(s.Response), settings.VoiceID, settings)
	log.LogSynthesis(len(audio), time.Since(start), err)
	if err != nil {
		s.Warn(core.UpstreamDegradableError, "speech synthesis failed", err)
		return core.StatusStoreMemory
	}
	s.Audio = audio

	if e.audio != nil {
		actx, cancel := withTimeout(ctx, e.config.MemoryTimeout)
		defer cancel()
		if err := e.audio.Save(actx, s.SessionID, s.ID, audio); err != nil {
			log.LogDegraded("audio_store", core.PersistenceWarning.String(), err)
			s.Warn(core.PersistenceWarning, "audio clip not stored", err)
		}
	}
	return core.StatusStoreMemory
}

// storeMemory persists the exchange and applies pending feedback. Nothing
// here can fail the turn.
func (e *Engine) storeMemory(ctx context.Context, s *core.TurnState, log logging.TurnLogger) core.Status {
	ns := s.Namespace()
	now := e.now()
	user := core.UserMessage(s.Utterance)
	assistant := core.AssistantMessage(s.Response)

	var g errgroup.Group
	for _, m := range nonEmpty(user, assistant) {
		rec := core.MemoryRecord{
			SessionID: s.SessionID,
			Content:   m.Content,
			Type:      core.MemoryConversation,
			CreatedAt: now,
			Metadata:  map[string]string{"role": m.Role.String(), "turn_id": s.ID},
		}
		g.Go(func() error {
			if _, err := e.ranker.Append(ctx, ns, rec); err != nil {
				return fmt.Errorf("append %s memory: %w", rec.Metadata["role"], err)
			}
			return nil
		})
	}
	g.Go(func() error {
		tctx, cancel := withTimeout(ctx, e.config.MemoryTimeout)
		defer cancel()
		if err := e.threads.Append(tctx, s.SessionID, nonEmpty(user, assistant)...); err != nil {
			return fmt.Errorf("append thread: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.LogDegraded("memory_store", core.PersistenceWarning.String(), err)
		s.Warn(core.PersistenceWarning, "memory append failed", err)
	}

	if fb := s.PendingFeedback; fb != nil {
		if fb.SessionID == "" {
			fb.SessionID = s.SessionID
		}
		out, err := e.reinforcer.Apply(ctx, ns, *fb)
		if err != nil {
			log.LogDegraded("reinforce", core.PersistenceWarning.String(), err)
			s.Warn(core.PersistenceWarning, "feedback reinforcement failed", err)
		}
		s.Adjustments = out.Adjustments
		s.PendingFeedback = nil
	}

	return core.StatusCompleted
}

var errNoSynthesizer = errors.New("no synthesizer configured")

func nonEmpty(msgs ...core.Message) []core.Message {
	out := msgs[:0]
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) != "" {
			out = append(out, m)
		}
	}
	return out
}
