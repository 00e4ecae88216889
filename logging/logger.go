package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// New builds a slog backed Logger writing json or text records to w.
func New(level LogLevel, format string, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level.slog()}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return NewSlogAdapter(slog.New(handler))
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// TurnLogger decorates a Logger with the identifiers of one turn and
// domain helpers for the engine. It is cheap to copy.
type TurnLogger struct {
	base  Logger
	attrs []any
}

// ForTurn creates a TurnLogger carrying turn, session and namespace attributes.
func ForTurn(l Logger, turnID, sessionID, namespace string) TurnLogger {
	return TurnLogger{
		base:  OrNoOp(l),
		attrs: []any{"turn_id", turnID, "session_id", sessionID, "namespace", namespace},
	}
}

func (t TurnLogger) with(args []any) []any {
	out := make([]any, 0, len(t.attrs)+len(args))
	out = append(out, t.attrs...)
	return append(out, args...)
}

// Debug logs at debug level with turn attributes.
func (t TurnLogger) Debug(msg string, args ...any) { t.base.Debug(msg, t.with(args)...) }

// Info logs at info level with turn attributes.
func (t TurnLogger) Info(msg string, args ...any) { t.base.Info(msg, t.with(args)...) }

// Warn logs at warn level with turn attributes.
func (t TurnLogger) Warn(msg string, args ...any) { t.base.Warn(msg, t.with(args)...) }

// Error logs at error level with turn attributes.
func (t TurnLogger) Error(msg string, args ...any) { t.base.Error(msg, t.with(args)...) }

// LogTransition records a node transition.
func (t TurnLogger) LogTransition(from, to fmt.Stringer, iteration int) {
	t.Debug("turn.transition", "from", from.String(), "to", to.String(), "iteration", iteration)
}

// LogCompletion records completion latency, token usage and success.
func (t TurnLogger) LogCompletion(tokens int, dur time.Duration, err error) {
	if err != nil {
		t.Error("completion.failed", "duration", dur, "error", err.Error())
		return
	}
	t.Info("completion.completed", "token_count", tokens, "duration", dur)
}

// LogSynthesis records speech synthesis latency and outcome.
func (t TurnLogger) LogSynthesis(bytes int, dur time.Duration, err error) {
	if err != nil {
		t.Warn("synthesis.failed", "duration", dur, "error", err.Error())
		return
	}
	t.Info("synthesis.completed", "audio_bytes", bytes, "duration", dur)
}

// LogToolCall records a tool execution.
func (t TurnLogger) LogToolCall(tool string, dur time.Duration, err error) {
	if err != nil {
		t.Warn("tool.call.failed", "tool", tool, "duration", dur, "error", err.Error())
		return
	}
	t.Info("tool.call.completed", "tool", tool, "duration", dur)
}

// LogDegraded records a non-fatal failure that reduced turn functionality.
func (t TurnLogger) LogDegraded(stage, kind string, err error) {
	t.Warn("turn.degraded", "stage", stage, "kind", kind, "error", fmt.Sprint(err))
}
