// Package providertest provides test helpers for the provider package.
package providertest

import (
	"context"
	"sync"

	"github.com/flemzord/chatloop/internal/provider"
)

// Call records the arguments of one Generate invocation.
type Call struct {
	Prompt  string
	Options provider.GenerateOptions
}

// MockGenerator is a configurable test double for provider.Generator.
// Set GenerateFunc to control behavior; an unset func panics on call.
// All methods are safe for concurrent use.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, opts provider.GenerateOptions) ([]provider.Generation, error)
	Model        string

	mu    sync.Mutex
	calls []Call
}

// Echo returns a MockGenerator that answers every prompt with the prompt
// followed by continuation, like a backend that echoes its input.
func Echo(continuation string) *MockGenerator {
	return &MockGenerator{
		GenerateFunc: func(_ context.Context, prompt string, _ provider.GenerateOptions) ([]provider.Generation, error) {
			return []provider.Generation{{GeneratedText: prompt + continuation}}, nil
		},
		Model: "mock",
	}
}

// Generate delegates to GenerateFunc and records the call.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) ([]provider.Generation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Options: opts})
	m.mu.Unlock()
	return m.GenerateFunc(ctx, prompt, opts)
}

// ModelName returns Model.
func (m *MockGenerator) ModelName() string {
	return m.Model
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Interface guard.
var _ provider.Generator = (*MockGenerator)(nil)
