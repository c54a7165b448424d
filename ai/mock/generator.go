package mock

import (
	"context"
	"fmt"
	"sync/atomic"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via a function field.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default canned behavior.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	callCount atomic.Int64
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a short canned answer derived from the prompt length.
func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.callCount.Add(1)

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt)
	}

	return fmt.Sprintf("mock answer (%d prompt chars)", len(prompt)), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount.Store(0)
	m.GenerateFunc = nil
}
