package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers.
type MockProvider struct {
	Response string
	Chunks   []string // streamed in order when set; Response otherwise
	Err      error

	mu       sync.Mutex
	requests []CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockProvider) record(req CompletionRequest) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.record(req)
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	return CompletionResponse{
		Content:      m.Response,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(m.Response),
	}, nil
}

func (m *MockProvider) StreamComplete(_ context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	m.record(req)
	chunks := m.Chunks
	if len(chunks) == 0 {
		chunks = []string{m.Response}
	}

	ch := make(chan StreamChunk, len(chunks)+1)
	go func() {
		defer close(ch)
		if m.Err != nil {
			ch <- StreamChunk{Error: m.Err}
			return
		}
		total := 0
		for _, c := range chunks {
			total += len(c)
			ch <- StreamChunk{Content: c}
		}
		ch <- StreamChunk{Done: true, Model: "mock", InputTokens: 10, OutputTokens: total}
	}()
	return ch, nil
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
