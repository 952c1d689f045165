package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"orby/config"
	"orby/model"
	"orby/ollama"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaProvider wraps ollama.Client to implement model.Provider.
//
// It converts model.Message to api.Message and maps Ollama failures onto the
// provider error taxonomy. An unknown model is reported as a
// *ModelNotFoundError whose hint is the matching "ollama pull" command.
type OllamaProvider struct {
	client     *ollama.Client
	httpClient *http.Client
	model      string
	opts       ollama.Options
}

// NewOllamaProvider creates a provider for the Ollama server in cfg.BaseURL.
// A base URL ending in "/api" is accepted and normalized.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	client, err := ollama.NewClient(cfg.BaseURL, cfg.httpClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = config.DefaultModelName
	}

	return &OllamaProvider{
		client:     client,
		httpClient: cfg.httpClient(),
		model:      modelName,
		opts: ollama.Options{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}, nil
}

func (p *OllamaProvider) Name() string {
	return string(config.BackendOllama)
}

func (p *OllamaProvider) DefaultModel() string {
	return p.model
}

func (p *OllamaProvider) BaseURL() string {
	return p.client.BaseURL()
}

func (p *OllamaProvider) modelFor(req model.ChatRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.model
}

// Complete implements model.Provider.Complete with stream=false.
func (p *OllamaProvider) Complete(ctx context.Context, req model.ChatRequest) (string, error) {
	modelName := p.modelFor(req)
	start := time.Now()
	logDispatch(p.Name(), modelName, len(req.Messages), false)

	var b strings.Builder
	err := p.client.Chat(ctx, modelName, ConvertToOllamaMessages(req.Messages), p.opts, false, func(chunk string) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		err = p.classify(modelName, err)
		logDispatchFailed(p.Name(), modelName, err)
		return "", err
	}

	logDispatchDone(p.Name(), modelName, b.Len(), time.Since(start))
	return b.String(), nil
}

// Chat implements model.Provider.Chat. Chunks without content are skipped.
func (p *OllamaProvider) Chat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	modelName := p.modelFor(req)
	start := time.Now()
	logDispatch(p.Name(), modelName, len(req.Messages), true)

	var callbackErr error
	total := 0
	err := p.client.Chat(ctx, modelName, ConvertToOllamaMessages(req.Messages), p.opts, true, func(chunk string) error {
		if chunk == "" || callback == nil {
			return nil
		}
		total += len(chunk)
		if err := callback(chunk); err != nil {
			callbackErr = err
			return err
		}
		return nil
	})
	if callbackErr != nil {
		return callbackErr
	}
	if err != nil {
		err = p.classify(modelName, err)
		logDispatchFailed(p.Name(), modelName, err)
		return err
	}

	logDispatchDone(p.Name(), modelName, total, time.Since(start))
	return nil
}

// ListModels implements model.Provider.ListModels against GET /api/tags.
func (p *OllamaProvider) ListModels(ctx context.Context) []string {
	return listModels(ctx, p.httpClient, p.Name(), p.client.BaseURL()+"/api/tags", p.model, ollamaNameKeys)
}

func (p *OllamaProvider) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx); err != nil {
		return p.classify(p.model, err)
	}
	return nil
}

func (p *OllamaProvider) classify(modelName string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound || mentionsNotFound(statusErr.ErrorMessage) {
			return p.modelNotFound(modelName)
		}
		if statusUnavailable(statusErr.StatusCode) {
			return newBackendError(p.Name(), ErrBackendUnavailable, err)
		}
		return newBackendError(p.Name(), ErrBackendProtocol, err)
	}

	if isUnavailable(err) {
		return newBackendError(p.Name(), ErrBackendUnavailable, err)
	}
	if mentionsNotFound(err.Error()) {
		return p.modelNotFound(modelName)
	}
	return newBackendError(p.Name(), ErrBackendProtocol, err)
}

func (p *OllamaProvider) modelNotFound(modelName string) error {
	return newBackendError(p.Name(), ErrModelNotFound, &ModelNotFoundError{
		Model: modelName,
		Hint:  "ollama pull " + modelName,
	})
}

func logDispatch(backend, modelName string, messages int, stream bool) {
	config.DebugLog.Debug("dispatch",
		zap.String("backend", backend),
		zap.String("model", modelName),
		zap.Int("messages", messages),
		zap.Bool("stream", stream))
}

func logDispatchDone(backend, modelName string, size int, elapsed time.Duration) {
	config.DebugLog.Debug("dispatch completed",
		zap.String("backend", backend),
		zap.String("model", modelName),
		zap.Int("bytes", size),
		zap.Duration("elapsed", elapsed))
}

func logDispatchFailed(backend, modelName string, err error) {
	config.DebugLog.Debug("dispatch failed",
		zap.String("backend", backend),
		zap.String("model", modelName),
		zap.Error(err))
}
