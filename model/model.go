package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/voiceagent/core"
)

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Model is a Completer that can describe itself.
type Model interface {
	core.Completer

	// Info returns information about the model implementation.
	Info() Info
}

var _ Model = (*MockModel)(nil)

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are keyed by the last user message.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	requests  []core.CompletionRequest
	err       error
	delay     time.Duration
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for a user utterance.
func (m *MockModel) AddResponse(utterance, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[utterance] = response
}

// SetError makes every subsequent call fail with err.
func (m *MockModel) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every call wait d (or until the context ends).
func (m *MockModel) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []core.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.CompletionRequest(nil), m.requests...)
}

// Complete implements core.Completer.
func (m *MockModel) Complete(ctx context.Context, req core.CompletionRequest) (*core.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	delay, err := m.delay, m.err
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	var input string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			input = req.Messages[i].Content
			break
		}
	}

	m.mu.Lock()
	full, ok := m.responses[input]
	m.mu.Unlock()
	if !ok {
		full = fmt.Sprintf("Mock response to: %s", input)
	}
	return &core.Completion{Content: full, TokensUsed: len(full) / 4}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
