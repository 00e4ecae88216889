// Package tool implements the capabilities a turn can invoke on the use-tools
// path: a Tool interface with schema-validated arguments, a FunctionTool
// adapter for plain Go functions, and a Toolbox that selects tools by trigger
// keywords and runs them.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/voiceagent/internal/util"
)

// QueryArg is the argument carrying the user's utterance.
const QueryArg = "query"

// Tool is a capability the agent can call instead of, or before, answering
// directly.
//
// Implementations should be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier (snake_case).
	Name() string

	// Description returns a human-readable summary that is shown to the model
	// together with the tool's output.
	Description() string

	// Parameters returns a minimal JSON schema for the arguments.
	Parameters() map[string]any

	// Call executes the tool with validated arguments.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
