// Package llmtest provides scripted model clients for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeprimer/codeprimer/pkg/httputil"
	"github.com/codeprimer/codeprimer/pkg/llm"
)

// Mock replies from a script. Responses are consumed in order per call;
// when the script runs out, the last entry repeats. A Respond function,
// if set, takes precedence and can key replies off the prompt.
type Mock struct {
	// ProviderName defaults to "mock".
	ProviderName string

	// Script holds canned responses, consumed one per Generate call.
	Script []string

	// Respond, when non-nil, computes the reply from the prompt.
	Respond func(model, prompt string) (string, error)

	mu      sync.Mutex
	calls   int
	prompts []string
}

// Name implements llm.Client.
func (m *Mock) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Generate implements llm.Client.
func (m *Mock) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)

	if m.Respond != nil {
		return m.Respond(model, prompt)
	}
	if len(m.Script) == 0 {
		return "", fmt.Errorf("mock: no scripted response for call %d", m.calls)
	}
	idx := m.calls - 1
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	return m.Script[idx], nil
}

// Calls reports how many times Generate ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns a copy of every prompt seen, in call order.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Flaky fails the first FailFirst calls with a transient error, then
// delegates to Inner.
type Flaky struct {
	Inner     llm.Client
	FailFirst int

	mu    sync.Mutex
	calls int
}

// Name implements llm.Client.
func (f *Flaky) Name() string { return f.Inner.Name() }

// Generate implements llm.Client.
func (f *Flaky) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if n <= f.FailFirst {
		return "", httputil.Retryable(fmt.Errorf("flaky: simulated transient failure %d", n))
	}
	return f.Inner.Generate(ctx, model, prompt)
}

// Calls reports how many times Generate ran, including failed attempts.
func (f *Flaky) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	_ llm.Client = (*Mock)(nil)
	_ llm.Client = (*Flaky)(nil)
)
