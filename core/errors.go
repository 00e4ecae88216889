package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures observed during a turn.
type ErrorKind int

const (
	// ConfigurationError covers a missing or invalid trait vector or identifier.
	ConfigurationError ErrorKind = iota + 1
	// UpstreamCriticalError is a completion failure; it fails the turn.
	UpstreamCriticalError
	// UpstreamDegradableError is a synthesis, retrieval or tool failure.
	UpstreamDegradableError
	// BudgetExceeded marks a turn that stopped at its iteration cap.
	BudgetExceeded
	// PersistenceWarning is a failed memory append or reinforce.
	PersistenceWarning
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "ConfigurationError"
	case UpstreamCriticalError:
		return "UpstreamCriticalError"
	case UpstreamDegradableError:
		return "UpstreamDegradableError"
	case BudgetExceeded:
		return "BudgetExceededError"
	case PersistenceWarning:
		return "PersistenceWarning"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Fatal reports whether the kind terminates the turn in Error.
func (k ErrorKind) Fatal() bool {
	return k == ConfigurationError || k == UpstreamCriticalError
}

// TurnError is a classified failure recorded on a TurnState.
type TurnError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewTurnError constructs a TurnError wrapping err.
func NewTurnError(kind ErrorKind, msg string, err error) *TurnError {
	return &TurnError{Kind: kind, Message: msg, Err: err}
}

func (e *TurnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TurnError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind of err, or 0 if err is not a TurnError.
func KindOf(err error) ErrorKind {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

var (
	// ErrNoConfiguration is returned when a turn carries no agent configuration.
	ErrNoConfiguration = errors.New("no agent configuration")
	// ErrInvalidIdentifiers is returned when tenant, agent or session ids are missing.
	ErrInvalidIdentifiers = errors.New("tenant, agent and session identifiers are required")
	// ErrEmptyUtterance is returned when a turn has no user text.
	ErrEmptyUtterance = errors.New("empty utterance")
	// ErrEmptyCompletion is returned when the completion service yields no text.
	ErrEmptyCompletion = errors.New("empty completion")
)
