package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/logging"
)

// ReinforcerConfig bounds the feedback heuristics.
type ReinforcerConfig struct {
	// LearningRate is the step applied to an adjustment per strong signal.
	LearningRate float64
	// AdjustmentBound clamps every adjustment scalar to ±AdjustmentBound.
	AdjustmentBound float64
	// RewardThreshold is the |reward| a signal must exceed to nudge adjustments.
	RewardThreshold float64
	// RecordFeedback stores every feedback event as a feedback memory.
	RecordFeedback bool
}

// DefaultReinforcerConfig is the standard feedback policy.
var DefaultReinforcerConfig = ReinforcerConfig{
	LearningRate:    0.1,
	AdjustmentBound: 0.3,
	RewardThreshold: 0.5,
	RecordFeedback:  true,
}

// ReinforcerOptions configures a Reinforcer.
type ReinforcerOptions struct {
	Config ReinforcerConfig
	Logger logging.Logger
}

// Reinforcer applies user feedback to memory weights and session behavior.
// It is a bounded heuristic accumulator, not a trained policy.
type Reinforcer struct {
	ranker *Ranker
	cfg    ReinforcerConfig
	logger logging.Logger

	mu       sync.Mutex
	sessions map[string]core.Adjustments
}

// NewReinforcer creates a Reinforcer writing through ranker's store.
func NewReinforcer(ranker *Ranker, optFns ...func(o *ReinforcerOptions)) *Reinforcer {
	opts := ReinforcerOptions{Config: DefaultReinforcerConfig, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reinforcer{
		ranker:   ranker,
		cfg:      opts.Config,
		logger:   logging.OrNoOp(opts.Logger),
		sessions: make(map[string]core.Adjustments),
	}
}

// DeltaFromFeedback converts raw feedback into a weight delta in [-1,1].
func DeltaFromFeedback(fb core.Feedback) float64 {
	switch fb.Type {
	case core.FeedbackThumbsDown:
		if fb.Value > 0 {
			return -core.Clamp(fb.Value, -1, 1)
		}
		return core.Clamp(fb.Value, -1, 1)
	case core.FeedbackRating:
		return core.Clamp((fb.Value-3)/2, -1, 1)
	default:
		return core.Clamp(fb.Value, -1, 1)
	}
}

// Reinforce adds delta (clamped to [-1,1]) to a record's weight and returns
// the new weight. The store serializes concurrent updates of one record.
func (r *Reinforcer) Reinforce(ctx context.Context, ns core.Namespace, id string, delta float64) (float64, error) {
	ctx, cancel := r.ranker.withTimeout(ctx)
	defer cancel()

	w, err := r.ranker.store.UpdateWeight(ctx, ns, id, core.Clamp(delta, -1, 1))
	if err != nil {
		return 0, fmt.Errorf("reinforce %s: %w", id, err)
	}
	return w, nil
}

// Adjust nudges one session scalar by the learning rate when the reward is
// strong enough and returns the session's adjustments.
func (r *Reinforcer) Adjust(sessionID string, reward float64, aspect core.Aspect) core.Adjustments {
	r.mu.Lock()
	defer r.mu.Unlock()

	adj := r.sessions[sessionID]
	step := 0.0
	switch {
	case reward > r.cfg.RewardThreshold:
		step = r.cfg.LearningRate
	case reward < -r.cfg.RewardThreshold:
		step = -r.cfg.LearningRate
	}
	if step != 0 {
		bound := r.cfg.AdjustmentBound
		switch aspect {
		case core.AspectVerbosity:
			adj.Verbosity = core.Clamp(adj.Verbosity+step, -bound, bound)
		case core.AspectFormality:
			adj.Formality = core.Clamp(adj.Formality+step, -bound, bound)
		default:
			adj.Confidence = core.Clamp(adj.Confidence+step, -bound, bound)
		}
		r.sessions[sessionID] = adj
	}
	return adj
}

// Adjustments returns the accumulated adjustments of a session.
func (r *Reinforcer) Adjustments(sessionID string) core.Adjustments {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID]
}

// Reset clears a session's adjustments.
func (r *Reinforcer) Reset(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// InferAspect picks the adjustment a feedback event targets.
func InferAspect(fb core.Feedback) core.Aspect {
	if fb.Aspect != core.AspectNone {
		return fb.Aspect
	}
	text := strings.ToLower(fb.Comment)
	switch {
	case strings.Contains(text, "verbose"), strings.Contains(text, "wordy"), strings.Contains(text, "too long"):
		return core.AspectVerbosity
	case strings.Contains(text, "formal"):
		return core.AspectFormality
	default:
		return core.AspectConfidence
	}
}

// Outcome summarizes an applied feedback event.
type Outcome struct {
	Delta            float64
	Weight           *float64
	Adjustments      core.Adjustments
	FeedbackRecordID string
}

// Apply derives the delta, reinforces the target memory, updates session
// adjustments and records the feedback as memory. Store failures are joined
// into the returned error; the outcome is valid either way.
func (r *Reinforcer) Apply(ctx context.Context, ns core.Namespace, fb core.Feedback) (Outcome, error) {
	var errs []error
	out := Outcome{Delta: DeltaFromFeedback(fb)}

	if fb.MemoryID != "" {
		w, err := r.Reinforce(ctx, ns, fb.MemoryID, out.Delta)
		if err != nil {
			errs = append(errs, err)
		} else {
			out.Weight = &w
		}
	}

	out.Adjustments = r.Adjust(fb.SessionID, out.Delta, InferAspect(fb))

	if r.cfg.RecordFeedback {
		rec, err := r.ranker.Append(ctx, ns, core.MemoryRecord{
			SessionID: fb.SessionID,
			Type:      core.MemoryFeedback,
			Content:   describeFeedback(fb, out.Delta),
			Metadata: map[string]string{
				"feedback_type": string(fb.Type),
				"target":        fb.MemoryID,
			},
		})
		if err != nil {
			errs = append(errs, err)
		} else {
			out.FeedbackRecordID = rec.ID
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		r.logger.Warn("feedback.apply.partial", "namespace", ns.String(), "session_id", fb.SessionID, "error", err.Error())
	}
	return out, err
}

func describeFeedback(fb core.Feedback, delta float64) string {
	mood := "neutral"
	switch {
	case delta > 0:
		mood = "positive"
	case delta < 0:
		mood = "negative"
	}
	s := fmt.Sprintf("User gave %s feedback (%s, value %.2f)", mood, fb.Type, fb.Value)
	if c := strings.TrimSpace(fb.Comment); c != "" {
		s += ": " + c
	}
	return s
}
