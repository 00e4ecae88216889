package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/voiceagent/internal/util"
)

var _ Tool = (*FunctionTool)(nil)

// FunctionTool exposes a plain Go function as a Tool.
//
// Arguments are validated against the declared schema before fn runs. Errors
// are normalized to *ToolError:
//
//	*ToolError returned by fn -> forwarded unchanged
//	validation failure        -> Code "VALIDATION_ERROR"
//	any other error           -> Code "EXECUTION_ERROR"
//
// A FunctionTool has no mutable state and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and function.
//
// Example:
//
//	echo := NewFunctionTool(
//	  "echo",
//	  "Repeat the query",
//	  util.ObjectSchema([]string{"query"}, map[string]string{"query": "text to repeat"}),
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["query"], nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewQueryTool builds a FunctionTool whose only argument is the utterance.
func NewQueryTool(name, description string, fn func(ctx context.Context, query string) (string, error)) *FunctionTool {
	params := util.ObjectSchema([]string{QueryArg}, map[string]string{QueryArg: "the user's request"})
	return NewFunctionTool(name, description, params, func(ctx context.Context, args map[string]any) (any, error) {
		q, _ := args[QueryArg].(string)
		return fn(ctx, q)
	})
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the natural language description.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args and invokes the wrapped function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}
	return result, nil
}
