package core

import (
	"fmt"
	"sync"
)

// StepBudget bounds the number of node transitions a single turn may take.
type StepBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewStepBudget creates a budget allowing max transitions.
// If max == 0, unlimited transitions are allowed.
func NewStepBudget(max int) *StepBudget {
	return &StepBudget{max: max}
}

// StepBound is the transition budget for a turn with the given iteration cap:
// each pass visits at most Supervisor, MemoryRetrieval and Orchestrate, and the
// tail visits Respond, SynthesizeVoice, StoreMemory and a terminal state.
func StepBound(maxIterations int) int {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return 3*maxIterations + 6
}

// Increment records one transition and returns an error once the budget is exceeded.
func (b *StepBudget) Increment() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.count++
	if b.max > 0 && b.count > b.max {
		return fmt.Errorf("exceeded max transitions: %d", b.max)
	}

	return nil
}

// Count returns the number of transitions taken.
func (b *StepBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many transitions are left.
func (b *StepBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1 // unlimited
	}

	return b.max - b.count
}
