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

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider implements model.Provider for OpenAI-compatible servers
// such as LM Studio, using the official OpenAI Go SDK.
type OpenAIProvider struct {
	client      openai.Client
	httpClient  *http.Client
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// NewOpenAIProvider creates a provider for the server at cfg.BaseURL
// (including the /v1 suffix). LM Studio ignores the API key, so an empty key
// falls back to config.DefaultLMStudioAPIKey.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultLMStudioURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid OpenAI-compatible URL %q: scheme is required", baseURL)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = config.DefaultLMStudioAPIKey
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = config.DefaultModelName
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL+"/"),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient()),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:      client,
		httpClient:  cfg.httpClient(),
		model:       modelName,
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return string(config.BackendLMStudio)
}

func (p *OpenAIProvider) DefaultModel() string {
	return p.model
}

func (p *OpenAIProvider) BaseURL() string {
	return p.baseURL
}

func (p *OpenAIProvider) params(req model.ChatRequest) openai.ChatCompletionNewParams {
	modelName := req.Model
	if modelName == "" {
		modelName = p.model
	}

	params := openai.ChatCompletionNewParams{
		Messages:    ConvertToOpenAIMessages(req.Messages),
		Model:       openai.ChatModel(modelName),
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	return params
}

// Complete implements model.Provider.Complete and returns
// choices[0].message.content.
func (p *OpenAIProvider) Complete(ctx context.Context, req model.ChatRequest) (string, error) {
	params := p.params(req)
	modelName := string(params.Model)
	start := time.Now()
	logDispatch(p.Name(), modelName, len(req.Messages), false)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = p.classify(modelName, err)
		logDispatchFailed(p.Name(), modelName, err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		err := newBackendError(p.Name(), ErrBackendProtocol, errors.New("response contained no choices"))
		logDispatchFailed(p.Name(), modelName, err)
		return "", err
	}

	content := resp.Choices[0].Message.Content
	logDispatchDone(p.Name(), modelName, len(content), time.Since(start))
	return content, nil
}

// Chat implements model.Provider.Chat, forwarding choices[0].delta.content.
func (p *OpenAIProvider) Chat(ctx context.Context, req model.ChatRequest, callback model.StreamCallback) error {
	params := p.params(req)
	modelName := string(params.Model)
	start := time.Now()
	logDispatch(p.Name(), modelName, len(req.Messages), true)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" || callback == nil {
			continue
		}
		if err := callback(content); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		err = p.classify(modelName, err)
		logDispatchFailed(p.Name(), modelName, err)
		return err
	}

	size := 0
	if len(acc.Choices) > 0 {
		size = len(acc.Choices[0].Message.Content)
	}
	logDispatchDone(p.Name(), modelName, size, time.Since(start))
	return nil
}

// ListModels implements model.Provider.ListModels against GET {base}/models.
func (p *OpenAIProvider) ListModels(ctx context.Context) []string {
	return listModels(ctx, p.httpClient, p.Name(), p.baseURL+"/models", p.model, openAINameKeys)
}

// Ping checks that GET {base}/models answers with 200.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := fetchModelNames(ctx, p.httpClient, p.baseURL+"/models", openAINameKeys); err != nil {
		return p.classify(p.model, err)
	}
	return nil
}

func (p *OpenAIProvider) classify(modelName string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound && mentionsNotFound(apiErr.Message) {
			return newBackendError(p.Name(), ErrModelNotFound, &ModelNotFoundError{
				Model: modelName,
				Hint:  "lms get " + modelName,
			})
		}
		if statusUnavailable(apiErr.StatusCode) {
			return newBackendError(p.Name(), ErrBackendUnavailable, err)
		}
		return newBackendError(p.Name(), ErrBackendProtocol, err)
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && !statusUnavailable(statusErr.StatusCode) {
		return newBackendError(p.Name(), ErrBackendProtocol, err)
	}

	if isUnavailable(err) || errors.As(err, &statusErr) {
		return newBackendError(p.Name(), ErrBackendUnavailable, err)
	}
	return newBackendError(p.Name(), ErrBackendProtocol, err)
}
