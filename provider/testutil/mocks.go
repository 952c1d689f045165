package testutil

import (
	"context"
	"strings"
	"sync"

	"orby/model"
)

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable responses
	CompleteFunc   func(ctx context.Context, req model.ChatRequest) (string, error)
	ChatFunc       func(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error
	ListModelsFunc func(ctx context.Context) []string
	PingFunc       func(ctx context.Context) error

	// Chunks streamed by the default Chat implementation
	Chunks []string

	mu       sync.Mutex
	requests []model.ChatRequest

	defaultModel string
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		defaultModel: modelName,
		Chunks:       []string{"Mock ", "response"},
	}
	mock.CompleteFunc = mock.defaultComplete
	mock.ChatFunc = mock.defaultChat
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockProvider) defaultComplete(ctx context.Context, req model.ChatRequest) (string, error) {
	return strings.Join(m.Chunks, ""), nil
}

func (m *MockProvider) defaultChat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	for _, chunk := range m.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockProvider) defaultListModels(ctx context.Context) []string {
	return []string{"mock-model-1", "mock-model-2"}
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) record(req model.ChatRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, model.ChatRequest{
		Model:    req.Model,
		Messages: model.CloneMessages(req.Messages),
	})
}

// Requests returns every request the mock received, in order.
func (m *MockProvider) Requests() []model.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ChatRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockProvider) LastRequest() model.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return model.ChatRequest{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) DefaultModel() string {
	return m.defaultModel
}

func (m *MockProvider) Complete(ctx context.Context, req model.ChatRequest) (string, error) {
	m.record(req)
	return m.CompleteFunc(ctx, req)
}

func (m *MockProvider) Chat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	m.record(req)
	return m.ChatFunc(ctx, req, callback)
}

func (m *MockProvider) ListModels(ctx context.Context) []string {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
