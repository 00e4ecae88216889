// Package logging provides a minimal logging interface and adapters for voiceagent.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine, memory and transports use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - TurnLogger with turn-scoped helpers for node transitions and collaborator calls
//
// Usage:
//
//	logger := logging.New(logging.LogLevelInfo, "json", os.Stderr)
//	va := voiceagent.New(func(o *voiceagent.Options) { o.Logger = logger })
package logging
