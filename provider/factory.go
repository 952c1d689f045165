package provider

import (
	"fmt"

	"orby/config"
	"orby/model"

	"go.uber.org/zap"
)

// NewProvider creates the backend selected by cfg.Type.
//
// Supported backends:
//   - config.BackendOllama: Ollama native chat API
//   - config.BackendLMStudio: any OpenAI-compatible server
//
// Any other value is a configuration error wrapping ErrUnsupportedBackend.
// Constructor errors (for example a malformed URL) are returned as is.
//
// Example:
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:    config.BackendLMStudio,
//	    BaseURL: "http://localhost:1234/v1",
//	    Model:   "qwen2.5-7b-instruct",
//	})
func NewProvider(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case config.BackendOllama:
		return NewOllamaProvider(cfg)
	case config.BackendLMStudio:
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Type)
	}
}

// ConfigFrom maps the application configuration onto a provider Config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Type:        cfg.Backend,
		BaseURL:     cfg.BaseURL(),
		Model:       cfg.DefaultModel,
		APIKey:      cfg.LMStudioAPIKey,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// FromConfig creates the provider configured in cfg.
func FromConfig(cfg *config.Config) (model.Provider, error) {
	p, err := NewProvider(ConfigFrom(cfg))
	if err != nil {
		return nil, err
	}

	config.DebugLog.Debug("provider initialized",
		zap.String("backend", p.Name()),
		zap.String("model", p.DefaultModel()))
	return p, nil
}
