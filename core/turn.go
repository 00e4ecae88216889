package core

import (
	"fmt"
	"strings"
	"time"
)

// Status is the node a turn is currently in. Completed and Error are terminal.
type Status int

const (
	StatusSupervisor Status = iota
	StatusMemoryRetrieval
	StatusOrchestrate
	StatusRespond
	StatusSynthesizeVoice
	StatusStoreMemory
	StatusCompleted
	StatusError
)

// Statuses lists every status in declaration order.
var Statuses = []Status{
	StatusSupervisor,
	StatusMemoryRetrieval,
	StatusOrchestrate,
	StatusRespond,
	StatusSynthesizeVoice,
	StatusStoreMemory,
	StatusCompleted,
	StatusError,
}

func (s Status) String() string {
	switch s {
	case StatusSupervisor:
		return "supervisor"
	case StatusMemoryRetrieval:
		return "memory_retrieval"
	case StatusOrchestrate:
		return "orchestrate"
	case StatusRespond:
		return "respond"
	case StatusSynthesizeVoice:
		return "synthesize_voice"
	case StatusStoreMemory:
		return "store_memory"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether the status ends the turn.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusError }

// Action is the routing signal set by the orchestrate node.
type Action int

const (
	ActionNone Action = iota
	ActionGenerateResponse
	ActionUseTools
	ActionIterate
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionGenerateResponse:
		return "generate_response"
	case ActionUseTools:
		return "use_tools"
	case ActionIterate:
		return "iterate"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// RouteDecision is the outcome of tool routing for an utterance.
type RouteDecision struct {
	UseTools           bool     `json:"use_tools"`
	Score              float64  `json:"score"`
	Confidence         float64  `json:"confidence"`
	EffectiveThreshold float64  `json:"effective_threshold"`
	Matched            []string `json:"matched,omitempty"`
}

// ToolObservation is the recorded output of one tool execution.
type ToolObservation struct {
	Tool   string `json:"tool"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TurnState is the mutable record threaded through the turn engine. It is
// owned by exactly one turn and discarded once a terminal status is returned.
type TurnState struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"`
	AgentID   string       `json:"agent_id"`
	SessionID string       `json:"session_id"`
	Config    *AgentConfig `json:"-"`
	Utterance string       `json:"utterance"`

	Messages       []Message        `json:"messages"`
	Status         Status           `json:"status"`
	NextAction     Action           `json:"next_action"`
	IterationCount int              `json:"iteration_count"`
	Params         GenerationParams `json:"params"`
	Adjustments    Adjustments      `json:"adjustments"`

	ShortTermContext  string         `json:"short_term_context,omitempty"`
	PersistentContext string         `json:"persistent_context,omitempty"`
	ContextSummary    string         `json:"context_summary,omitempty"`
	ContextConfidence float64        `json:"context_confidence"`
	ContextLoaded     bool           `json:"-"`
	Recalled          []MemoryRecord `json:"recalled,omitempty"`

	Instructions string            `json:"-"`
	Route        *RouteDecision    `json:"route,omitempty"`
	Observations []ToolObservation `json:"observations,omitempty"`
	ToolsRan     bool              `json:"-"`

	Response   string `json:"response"`
	TokensUsed int    `json:"tokens_used"`
	Audio      []byte `json:"audio,omitempty"`

	Degraded        bool         `json:"degraded"`
	BudgetExhausted bool         `json:"budget_exhausted"`
	Err             *TurnError   `json:"error,omitempty"`
	Warnings        []*TurnError `json:"warnings,omitempty"`
	PendingFeedback *Feedback    `json:"-"`

	Trace       []Status  `json:"trace"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewTurnState prepares a turn: prior context messages followed by the user
// utterance. Blank utterances add no user message.
func NewTurnState(tenantID, agentID, sessionID string, cfg *AgentConfig, utterance string, prior []Message) *TurnState {
	msgs := make([]Message, 0, len(prior)+1)
	msgs = append(msgs, prior...)
	if strings.TrimSpace(utterance) != "" {
		msgs = append(msgs, UserMessage(utterance))
	}
	return &TurnState{
		TenantID:  tenantID,
		AgentID:   agentID,
		SessionID: sessionID,
		Config:    cfg,
		Utterance: utterance,
		Messages:  msgs,
		Status:    StatusSupervisor,
	}
}

// HasUserMessage reports whether the latest message is from the user.
func (s *TurnState) HasUserMessage() bool {
	return len(s.Messages) > 0 && s.Messages[len(s.Messages)-1].Role == RoleUser
}

// Namespace returns the memory namespace of the turn.
func (s *TurnState) Namespace() Namespace {
	return Namespace{Tenant: s.TenantID, Agent: s.AgentID}
}

// Fail records a fatal error and returns the Error status.
func (s *TurnState) Fail(kind ErrorKind, msg string, err error) Status {
	s.Err = NewTurnError(kind, msg, err)
	s.Response = ""
	return StatusError
}

// Warn records a non-fatal error. Degradable upstream failures also set Degraded.
func (s *TurnState) Warn(kind ErrorKind, msg string, err error) {
	s.Warnings = append(s.Warnings, NewTurnError(kind, msg, err))
	if kind == UpstreamDegradableError {
		s.Degraded = true
	}
}

// LastAssistant returns the content of the latest assistant message.
func (s *TurnState) LastAssistant() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}
