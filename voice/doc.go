// Package voice prepares assistant text for speech and provides a scripted
// Synthesizer for tests. Provider clients live in subpackages.
package voice
