package persona

import (
	"math"

	"github.com/hupe1980/voiceagent/core"
)

// MapperConfig holds the constants of the trait mapping.
type MapperConfig struct {
	BaseTokens      int
	TokenCap        int
	BaseThreshold   float64
	MinThreshold    float64
	SafetyCeiling   float64
	BaseTemperature float64
	BaseNucleusP    float64
	// HighSafety is the normalized safety above which sampling deltas are capped.
	HighSafety float64
	// SafetyDeltaCap bounds |temperature-base| and |nucleus_p-base| under high safety.
	SafetyDeltaCap float64
}

// DefaultMapperConfig is the standard mapping.
var DefaultMapperConfig = MapperConfig{
	BaseTokens:      80,
	TokenCap:        640,
	BaseThreshold:   0.8,
	MinThreshold:    0.3,
	SafetyCeiling:   0.9,
	BaseTemperature: 0.7,
	BaseNucleusP:    0.9,
	HighSafety:      0.8,
	SafetyDeltaCap:  0.1,
}

// Mapper derives generation parameters from traits. It is pure and safe for
// concurrent use.
type Mapper struct {
	cfg MapperConfig
}

// NewMapper creates a Mapper.
func NewMapper(optFns ...func(c *MapperConfig)) *Mapper {
	cfg := DefaultMapperConfig
	for _, fn := range optFns {
		fn(&cfg)
	}
	return &Mapper{cfg: cfg}
}

// Map derives generation parameters with the default mapping.
func Map(traits core.TraitVector) core.GenerationParams {
	return defaultMapper.Map(traits)
}

var defaultMapper = NewMapper()

// Map derives generation parameters. Traits outside [0,100] are clamped.
func (m *Mapper) Map(traits core.TraitVector) core.GenerationParams {
	c := m.cfg
	verbosity := traits.Norm(core.TraitVerbosity)
	safety := traits.Norm(core.TraitSafety)
	creativity := traits.Norm(core.TraitCreativity)
	assertiveness := traits.Norm(core.TraitAssertiveness)
	confidence := traits.Norm(core.TraitConfidence)

	maxTokens := c.BaseTokens + int(verbosity*float64(c.TokenCap-c.BaseTokens))
	maxIterations := int(math.Round(1 + verbosity*2))
	if maxIterations < 1 {
		maxIterations = 1
	}

	// Safety shrinks how far verbosity may lower the threshold.
	resistance := 1 - math.Min(safety, c.SafetyCeiling)
	threshold := math.Max(c.MinThreshold, c.BaseThreshold-verbosity*(c.BaseThreshold-c.MinThreshold)*resistance)

	tempDelta := (creativity-0.5)*0.4 + (assertiveness-0.5)*0.1
	topPDelta := (confidence - 0.5) * 0.2
	if safety > c.HighSafety {
		tempDelta = core.Clamp(tempDelta, -c.SafetyDeltaCap, c.SafetyDeltaCap)
		topPDelta = core.Clamp(topPDelta, -c.SafetyDeltaCap, c.SafetyDeltaCap)
	}

	return core.GenerationParams{
		MaxTokens:            maxTokens,
		Temperature:          core.Clamp(c.BaseTemperature+tempDelta, 0.1, 1.0),
		NucleusP:             core.Clamp(c.BaseNucleusP+topPDelta, 0.1, 1.0),
		ToolRoutingThreshold: threshold,
		MaxIterations:        maxIterations,
	}
}

// ForAgent maps the agent's traits after applying session adjustments and
// honors the iteration override.
func (m *Mapper) ForAgent(cfg *core.AgentConfig, adj core.Adjustments) core.GenerationParams {
	params := m.Map(adj.ApplyTo(cfg.Traits))
	if cfg.MaxIterationsOverride != nil && *cfg.MaxIterationsOverride >= 1 {
		params.MaxIterations = *cfg.MaxIterationsOverride
	}
	return params
}
