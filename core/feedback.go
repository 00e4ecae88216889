package core

import (
	"math"
	"strings"
)

// FeedbackType classifies raw user feedback.
type FeedbackType string

const (
	FeedbackThumbsUp   FeedbackType = "thumbs_up"
	FeedbackThumbsDown FeedbackType = "thumbs_down"
	FeedbackRating     FeedbackType = "rating"
	FeedbackUnknown    FeedbackType = "unknown"
)

// ParseFeedbackType maps free-form names onto the known feedback types.
func ParseFeedbackType(s string) FeedbackType {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "thumbs_up", "thumbsup", "like":
		return FeedbackThumbsUp
	case "thumbs_down", "thumbsdown", "dislike":
		return FeedbackThumbsDown
	case "rating", "stars":
		return FeedbackRating
	default:
		return FeedbackUnknown
	}
}

// Aspect names a session-scoped behavioral adjustment scalar.
type Aspect string

const (
	AspectNone       Aspect = ""
	AspectConfidence Aspect = "confidence"
	AspectVerbosity  Aspect = "verbosity"
	AspectFormality  Aspect = "formality"
)

// Feedback is a raw user signal about a previous response.
type Feedback struct {
	SessionID string       `json:"session_id"`
	MemoryID  string       `json:"memory_id,omitempty"`
	Type      FeedbackType `json:"type"`
	Value     float64      `json:"value"`
	Aspect    Aspect       `json:"aspect,omitempty"`
	Comment   string       `json:"comment,omitempty"`
}

// Adjustments are the bounded behavioral deltas accumulated for a session.
type Adjustments struct {
	Confidence float64 `json:"confidence"`
	Verbosity  float64 `json:"verbosity"`
	Formality  float64 `json:"formality"`
}

// ApplyTo shifts the matching traits by delta*100.
func (a Adjustments) ApplyTo(v TraitVector) TraitVector {
	v.Confidence += int(math.Round(a.Confidence * 100))
	v.Verbosity += int(math.Round(a.Verbosity * 100))
	v.Formality += int(math.Round(a.Formality * 100))
	return v
}
