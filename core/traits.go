package core

import "fmt"

// Trait identifies one of the nine personality dimensions.
type Trait int

const (
	TraitCreativity Trait = iota
	TraitEmpathy
	TraitAssertiveness
	TraitVerbosity
	TraitFormality
	TraitConfidence
	TraitHumor
	TraitTechnicality
	TraitSafety
)

// Traits lists every trait in canonical order.
var Traits = []Trait{
	TraitCreativity,
	TraitEmpathy,
	TraitAssertiveness,
	TraitVerbosity,
	TraitFormality,
	TraitConfidence,
	TraitHumor,
	TraitTechnicality,
	TraitSafety,
}

// String returns the lower-case trait name.
func (t Trait) String() string {
	switch t {
	case TraitCreativity:
		return "creativity"
	case TraitEmpathy:
		return "empathy"
	case TraitAssertiveness:
		return "assertiveness"
	case TraitVerbosity:
		return "verbosity"
	case TraitFormality:
		return "formality"
	case TraitConfidence:
		return "confidence"
	case TraitHumor:
		return "humor"
	case TraitTechnicality:
		return "technicality"
	case TraitSafety:
		return "safety"
	default:
		return fmt.Sprintf("trait(%d)", int(t))
	}
}

// TraitVector holds the nine 0-100 personality traits of an agent.
// Values outside the range are tolerated here and clamped by the mapper.
type TraitVector struct {
	Creativity    int `json:"creativity" yaml:"creativity"`
	Empathy       int `json:"empathy" yaml:"empathy"`
	Assertiveness int `json:"assertiveness" yaml:"assertiveness"`
	Verbosity     int `json:"verbosity" yaml:"verbosity"`
	Formality     int `json:"formality" yaml:"formality"`
	Confidence    int `json:"confidence" yaml:"confidence"`
	Humor         int `json:"humor" yaml:"humor"`
	Technicality  int `json:"technicality" yaml:"technicality"`
	Safety        int `json:"safety" yaml:"safety"`
}

// DefaultTraits is a balanced personality used when a persona omits traits.
var DefaultTraits = TraitVector{
	Creativity:    50,
	Empathy:       50,
	Assertiveness: 50,
	Verbosity:     50,
	Formality:     50,
	Confidence:    50,
	Humor:         50,
	Technicality:  50,
	Safety:        70,
}

// Get returns the raw value of a trait.
func (v TraitVector) Get(t Trait) int {
	switch t {
	case TraitCreativity:
		return v.Creativity
	case TraitEmpathy:
		return v.Empathy
	case TraitAssertiveness:
		return v.Assertiveness
	case TraitVerbosity:
		return v.Verbosity
	case TraitFormality:
		return v.Formality
	case TraitConfidence:
		return v.Confidence
	case TraitHumor:
		return v.Humor
	case TraitTechnicality:
		return v.Technicality
	case TraitSafety:
		return v.Safety
	default:
		return 0
	}
}

// With returns a copy of the vector with one trait replaced.
func (v TraitVector) With(t Trait, value int) TraitVector {
	switch t {
	case TraitCreativity:
		v.Creativity = value
	case TraitEmpathy:
		v.Empathy = value
	case TraitAssertiveness:
		v.Assertiveness = value
	case TraitVerbosity:
		v.Verbosity = value
	case TraitFormality:
		v.Formality = value
	case TraitConfidence:
		v.Confidence = value
	case TraitHumor:
		v.Humor = value
	case TraitTechnicality:
		v.Technicality = value
	case TraitSafety:
		v.Safety = value
	}
	return v
}

// Clamped returns a copy with every trait clamped to [0,100].
func (v TraitVector) Clamped() TraitVector {
	out := v
	for _, t := range Traits {
		out = out.With(t, ClampInt(v.Get(t), 0, 100))
	}
	return out
}

// Norm returns the trait clamped to [0,100] and scaled to [0,1].
func (v TraitVector) Norm(t Trait) float64 {
	return float64(ClampInt(v.Get(t), 0, 100)) / 100
}

// GenerationParams is the sampling policy derived from a TraitVector.
// It is only ever recomputed, never edited in place.
type GenerationParams struct {
	MaxTokens            int     `json:"max_tokens"`
	Temperature          float64 `json:"temperature"`
	NucleusP             float64 `json:"nucleus_p"`
	ToolRoutingThreshold float64 `json:"tool_routing_threshold"`
	MaxIterations        int     `json:"max_iterations"`
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
