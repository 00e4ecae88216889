package persona

import "github.com/hupe1980/voiceagent/core"

// Band is the coarse level of a trait.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

// BandOf buckets a 0-100 trait value.
func BandOf(value int) Band {
	v := core.ClampInt(value, 0, 100)
	switch {
	case v < 34:
		return BandLow
	case v < 67:
		return BandMedium
	default:
		return BandHigh
	}
}

var phrases = map[core.Trait][3]string{
	core.TraitCreativity: {
		"Stick to conventional, proven answers.",
		"Balance practical answers with a touch of originality.",
		"Be imaginative and offer unexpected ideas.",
	},
	core.TraitEmpathy: {
		"Stay matter-of-fact and focus on the task.",
		"Acknowledge the user's feelings when relevant.",
		"Be warm and attentive to how the user feels.",
	},
	core.TraitAssertiveness: {
		"Offer suggestions gently and defer to the user.",
		"State your view clearly while staying open.",
		"Be direct and take a clear position.",
	},
	core.TraitVerbosity: {
		"Answer in as few words as possible.",
		"Give moderately detailed answers.",
		"Explain thoroughly with supporting detail.",
	},
	core.TraitFormality: {
		"Use a casual, relaxed tone.",
		"Use a friendly but professional tone.",
		"Use formal, polished language.",
	},
	core.TraitConfidence: {
		"Hedge where you are unsure and say so.",
		"Speak with measured confidence.",
		"Speak with conviction.",
	},
	core.TraitHumor: {
		"Keep the tone serious.",
		"Allow light humor where it fits.",
		"Be playful and witty.",
	},
	core.TraitTechnicality: {
		"Avoid jargon and explain in plain terms.",
		"Use technical terms when they help.",
		"Be precise and technical.",
	},
	core.TraitSafety: {
		"Be candid even on sensitive topics.",
		"Be careful with sensitive topics.",
		"Be cautious and avoid speculation or risky advice.",
	},
}

// Phrase returns the instruction phrase for a trait value.
func Phrase(t core.Trait, value int) string {
	p, ok := phrases[t]
	if !ok {
		return ""
	}
	return p[BandOf(value)]
}

// Phrases returns one instruction per trait in canonical order.
func Phrases(v core.TraitVector) []string {
	out := make([]string, 0, len(core.Traits))
	for _, t := range core.Traits {
		if p := Phrase(t, v.Get(t)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
