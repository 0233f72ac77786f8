package llm

import (
	"context"
	"sync"
)

// MockProvider is a test double that replays queued responses.
type MockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []Request
}

// NewMockProvider queues responses to replay in order. The last one
// repeats once the queue is exhausted.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{Responses: responses}
}

func (m *MockProvider) Name() string  { return "mock" }
func (m *MockProvider) Model() string { return "mock-model" }

func (m *MockProvider) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", NewError(ErrorTypeResponse, "no mock response queued", false, nil)
	}
	resp := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return resp, nil
}

// CallCount returns how many completions were requested.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

var _ Provider = (*MockProvider)(nil)
