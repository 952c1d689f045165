package model

import "context"

// ChatRequest is a single completion request. An empty Model means the
// provider's default model.
type ChatRequest struct {
	Model    string
	Messages []Message
}

// Provider abstracts the completion backends (Ollama direct chat and
// OpenAI-compatible servers such as LM Studio) using orby's own message type.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the agent, REPL and
// UI depend only on this interface.
//
// Implementations are immutable after construction and safe for concurrent use.
type Provider interface {
	// Name returns the backend identifier ("ollama" or "lmstudio").
	Name() string

	// Complete sends messages and blocks until the full reply is available.
	Complete(ctx context.Context, req ChatRequest) (string, error)

	// Chat sends messages and delivers the reply incrementally via callback.
	// Empty fragments are never delivered. Returning an error from callback
	// aborts the request.
	Chat(ctx context.Context, req ChatRequest, callback StreamCallback) error

	// ListModels returns the model identifiers the backend offers. It never
	// fails: when the backend cannot be queried it returns the default model.
	ListModels(ctx context.Context) []string

	// DefaultModel returns the model used when a request names none.
	DefaultModel() string

	// Ping checks if the backend is reachable.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each fragment of a streamed response.
type StreamCallback func(chunk string) error
