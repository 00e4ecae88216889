package persona

import "github.com/hupe1980/voiceagent/core"

// DefaultVoiceModel is the synthesis model used when none is configured.
const DefaultVoiceModel = "eleven_monolingual_v1"

// DefaultVoiceSettings are the neutral synthesis settings.
var DefaultVoiceSettings = core.VoiceSettings{
	ModelID:         DefaultVoiceModel,
	Stability:       0.5,
	SimilarityBoost: 0.75,
	Style:           0,
	UseSpeakerBoost: true,
}

// VoiceFor derives synthesis settings from traits. Non-zero fields of
// explicit take precedence; Enabled and VoiceID are always taken from it.
func VoiceFor(traits core.TraitVector, explicit core.VoiceSettings) core.VoiceSettings {
	s := DefaultVoiceSettings
	s.Stability = core.Clamp(0.3+traits.Norm(core.TraitConfidence)*0.4, 0, 1)
	s.SimilarityBoost = core.Clamp(0.6+traits.Norm(core.TraitAssertiveness)*0.3, 0, 1)
	s.Style = core.Clamp(traits.Norm(core.TraitCreativity)*0.3, 0, 1)

	s.Enabled = explicit.Enabled
	s.VoiceID = explicit.VoiceID
	if explicit.ModelID != "" {
		s.ModelID = explicit.ModelID
	}
	if explicit.Stability > 0 {
		s.Stability = core.Clamp(explicit.Stability, 0, 1)
	}
	if explicit.SimilarityBoost > 0 {
		s.SimilarityBoost = core.Clamp(explicit.SimilarityBoost, 0, 1)
	}
	if explicit.Style > 0 {
		s.Style = core.Clamp(explicit.Style, 0, 1)
	}
	return s
}
