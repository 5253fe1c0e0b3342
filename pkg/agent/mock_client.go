package agent

import (
	"context"
	"fmt"
	"sync"
)

// MockLLMClient provides a controllable implementation of LLMClient for testing.
// Call i returns errors[i] when it is non-nil, otherwise the next unused response.
type MockLLMClient struct {
	mu            sync.Mutex
	responses     []CompletionResponse
	responseIndex int
	errors        []error
	calls         []CompletionRequest
	model         string
}

// NewMockLLMClient creates a new mock client with predefined responses.
func NewMockLLMClient(responses []CompletionResponse, errors []error) *MockLLMClient {
	return &MockLLMClient{
		responses: responses,
		errors:    errors,
		model:     "mock-model",
	}
}

// NewMockLLMClientWithReplies is a shorthand for scripting plain text replies.
func NewMockLLMClientWithReplies(replies ...string) *MockLLMClient {
	responses := make([]CompletionResponse, len(replies))
	for i, r := range replies {
		responses[i] = CompletionResponse{Content: r}
	}
	return NewMockLLMClient(responses, nil)
}

// Complete returns the next predefined response or error.
func (m *MockLLMClient) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.calls)
	m.calls = append(m.calls, req)

	if call < len(m.errors) && m.errors[call] != nil {
		return CompletionResponse{}, m.errors[call]
	}

	if m.responseIndex >= len(m.responses) {
		return CompletionResponse{}, fmt.Errorf("mock client: no more responses")
	}

	resp := m.responses[m.responseIndex]
	m.responseIndex++
	return resp, nil
}

// GetModelName returns the mock model name.
func (m *MockLLMClient) GetModelName() string {
	return m.model
}

// Calls returns every request received so far.
func (m *MockLLMClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionRequest(nil), m.calls...)
}

// CallCount returns the number of Complete calls.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
