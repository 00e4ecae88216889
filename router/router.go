// Package router decides whether an utterance should be answered with tools
// or directly. Routing is deterministic and side-effect free; any internal
// failure degrades to answering directly.
package router

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/logging"
)

// Category is a named group of trigger keywords.
type Category struct {
	Name     string
	Keywords []string
}

// Config holds the keyword tables and scoring constants.
type Config struct {
	Categories       []Category
	Phrases          []string
	QuestionWords    []string
	PhraseBonus      float64
	PhraseBonusCap   float64
	QuestionBonus    float64
	SafetySlope      float64
	MinConfidence    float64
	DefaultThreshold float64
}

// DefaultConfig is the standard routing policy.
var DefaultConfig = Config{
	Categories: []Category{
		{Name: "search", Keywords: []string{"search", "look up", "find information", "what is", "who is", "google"}},
		{Name: "temporal", Keywords: []string{"today", "now", "current", "latest", "recent", "this week", "tonight", "tomorrow"}},
		{Name: "domain", Keywords: []string{"weather", "news", "stock", "price", "forecast", "score"}},
		{Name: "document", Keywords: []string{"read file", "open document", "analyze document", "file content"}},
		{Name: "calculation", Keywords: []string{"calculate", "compute", "analyze data", "statistics", "convert"}},
		{Name: "code", Keywords: []string{"run code", "execute", "debug", "compile"}},
		{Name: "services", Keywords: []string{"send email", "schedule", "reminder", "calendar", "book"}},
	},
	Phrases: []string{
		"weather", "stock price", "news", "look up", "search for", "calculate",
		"send email", "set a reminder", "run code", "read file",
	},
	QuestionWords:    []string{"what", "when", "where", "who", "why", "how", "which"},
	PhraseBonus:      0.2,
	PhraseBonusCap:   0.4,
	QuestionBonus:    0.1,
	SafetySlope:      0.2,
	MinConfidence:    0.1,
	DefaultThreshold: 0.7,
}

// Router scores utterances for tool use.
type Router struct {
	cfg     Config
	logger  logging.Logger
	scoreFn func(string) (float64, []string)
}

// Options configures a Router.
type Options struct {
	Config Config
	Logger logging.Logger
}

// New creates a Router.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{Config: DefaultConfig, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	r := &Router{cfg: opts.Config, logger: opts.Logger}
	r.scoreFn = r.Score
	return r
}

// Route decides between using tools and answering directly. The effective
// threshold rises with safety; any panic or non-finite value yields answer.
func (r *Router) Route(utterance string, threshold, safety float64) (d core.RouteDecision) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("router.panic", "error", fmt.Sprint(rec))
			d = r.answer(0, threshold)
		}
	}()

	if !finite(threshold) || !finite(safety) {
		return r.answer(0, threshold)
	}

	score, matched := r.scoreFn(utterance)
	effective := threshold + (safety-0.5)*r.cfg.SafetySlope
	if !finite(score) {
		return r.answer(0, effective)
	}

	return core.RouteDecision{
		UseTools:           score >= effective,
		Score:              score,
		Confidence:         core.Clamp(math.Max(score, r.cfg.MinConfidence), 0, 1),
		EffectiveThreshold: effective,
		Matched:            matched,
	}
}

// Score computes the raw tool score and the matched signals.
func (r *Router) Score(utterance string) (float64, []string) {
	text := normalize(utterance)
	if text == "" {
		return 0, nil
	}
	padded := " " + text + " "

	var matched []string
	hits := 0
	for _, c := range r.cfg.Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(padded, " "+kw+" ") {
				hits++
				matched = append(matched, c.Name+":"+kw)
				break
			}
		}
	}

	var score float64
	if len(r.cfg.Categories) > 0 {
		score = float64(hits) / float64(len(r.cfg.Categories))
	}

	bonus := 0.0
	for _, p := range r.cfg.Phrases {
		if strings.Contains(padded, " "+p+" ") {
			bonus += r.cfg.PhraseBonus
			matched = append(matched, "phrase:"+p)
		}
	}
	score += math.Min(bonus, r.cfg.PhraseBonusCap)

	first, _, _ := strings.Cut(text, " ")
	for _, q := range r.cfg.QuestionWords {
		if first == q {
			score += r.cfg.QuestionBonus
			matched = append(matched, "question:"+q)
			break
		}
	}

	return score, matched
}

func (r *Router) answer(score, effective float64) core.RouteDecision {
	return core.RouteDecision{
		UseTools:           false,
		Score:              score,
		Confidence:         r.cfg.MinConfidence,
		EffectiveThreshold: effective,
	}
}

// normalize lower-cases text, strips punctuation and collapses whitespace.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'':
			return -1
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
