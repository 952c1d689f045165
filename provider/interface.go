// Package provider implements the completion backends behind model.Provider.
//
// orby talks to two kinds of locally running servers:
//   - Ollama, through its native chat API (github.com/ollama/ollama/api)
//   - OpenAI-compatible servers such as LM Studio (github.com/openai/openai-go)
//
// Both are selected by config.Backend and expose the same contract: blocking
// Complete, incremental Chat, tolerant ListModels and Ping. Failures are
// normalized into ErrBackendUnavailable, ErrModelNotFound and
// ErrBackendProtocol (see errors.go) so callers can offer targeted
// remediation. No call is retried automatically.
//
// # Type Conversions
//
// The provider layer owns all conversions between orby's model.Message and
// the backend-specific message types. See conversions.go.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:    config.BackendOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.2",
//	})
//	if err != nil {
//	    // unsupported backend or invalid URL
//	}
//	reply, err := p.Complete(ctx, model.ChatRequest{Messages: msgs})
package provider

import (
	"net/http"

	"orby/config"
)

// Config holds the settings needed to construct one backend.
type Config struct {
	Type        config.Backend
	BaseURL     string
	Model       string // default model for requests that name none
	APIKey      string // OpenAI-compatible only
	Temperature float64
	MaxTokens   int // 0 leaves the server default

	// HTTPClient is used for chat and model listing requests. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
