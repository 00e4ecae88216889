// Package persona turns an agent's personality into concrete behavior.
//
// Map derives GenerationParams from a TraitVector (the relative-verbosity
// response mapping), Phrases and PromptBuilder turn traits and identity into
// system instructions, VoiceFor derives speech settings, and LoadFile reads
// persona documents from YAML.
package persona
