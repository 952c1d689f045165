// Package agent orchestrates a single prompt: it detects tool triggers in
// the user's message, runs the matching tools, merges their output into the
// conversation and dispatches the result to the configured backend.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orby/config"
	"orby/model"
	"orby/provider"
	"orby/security"
	"orby/storage"
	"orby/tools"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Confirmer asks a human to approve a risky invocation.
type Confirmer func(ctx context.Context, req security.ConfirmationRequest) bool

// Recorder persists tool runs. *storage.ToolLog implements it.
type Recorder interface {
	Record(ctx context.Context, run storage.ToolRun) (int64, error)
}

// Observer is told about every tool that ran for a request.
type Observer func(category Category, tool string, result tools.Result)

type Option func(*Agent)

func WithConfirmer(c Confirmer) Option {
	return func(a *Agent) { a.confirm = c }
}

func WithRecorder(r Recorder) Option {
	return func(a *Agent) { a.recorder = r }
}

func WithObserver(o Observer) Option {
	return func(a *Agent) { a.observe = o }
}

// WithBaseDir sets the directory relative "file:" paths resolve against.
func WithBaseDir(dir string) Option {
	return func(a *Agent) { a.baseDir = dir }
}

// Agent is safe for concurrent use; all per-request state lives on the
// stack of the call.
type Agent struct {
	cfg      *config.Config
	provider model.Provider
	registry *tools.Registry
	detector *Detector

	confirm  Confirmer
	recorder Recorder
	observe  Observer
	baseDir  string
}

// New creates an agent. A nil registry means tools.NewDefaultRegistry(cfg).
func New(cfg *config.Config, p model.Provider, registry *tools.Registry, opts ...Option) *Agent {
	if registry == nil {
		registry = tools.NewDefaultRegistry(cfg)
	}

	a := &Agent{
		cfg:      cfg,
		provider: p,
		registry: registry,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.detector = NewDetector(cfg, a.baseDir)
	return a
}

func (a *Agent) Provider() model.Provider {
	return a.provider
}

func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Detect runs trigger detection on the first user message of messages.
func (a *Agent) Detect(messages []model.Message) Detection {
	i := model.FirstUserMessage(messages)
	if i < 0 {
		return Detection{}
	}
	return a.detector.Detect(messages[i].Content)
}

// Gather runs every tool detected in messages and returns their results.
// Tools run concurrently. A failing tool contributes a failed result; it
// never aborts the request.
func (a *Agent) Gather(ctx context.Context, messages []model.Message) Context {
	invocations := a.Detect(messages).Invocations()
	if len(invocations) == 0 {
		return Context{}
	}

	var mu sync.Mutex
	toolCtx := make(Context, len(invocations))

	var g errgroup.Group
	for _, inv := range invocations {
		g.Go(func() error {
			res := a.invoke(ctx, inv)
			mu.Lock()
			toolCtx[inv.Category] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return toolCtx
}

func (a *Agent) invoke(ctx context.Context, inv Match) tools.Result {
	start := time.Now()
	res := a.run(ctx, inv)
	elapsed := time.Since(start)

	config.DebugLog.Debug("tool invoked",
		zap.String("tool", inv.Tool),
		zap.String("category", string(inv.Category)),
		zap.Bool("success", res.Success),
		zap.Duration("elapsed", elapsed))

	if a.recorder != nil {
		run := storage.ToolRun{
			Tool:     inv.Tool,
			Category: string(inv.Category),
			Input:    paramSummary(inv.Params),
			Success:  res.Success,
			Display:  res.ReturnDisplay,
			Duration: elapsed,
		}
		if _, err := a.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
			config.DebugLog.Warn("failed to record tool run", zap.String("tool", inv.Tool), zap.Error(err))
		}
	}

	if a.observe != nil {
		a.observe(inv.Category, inv.Tool, res)
	}
	return res
}

func (a *Agent) run(ctx context.Context, inv Match) tools.Result {
	tool, ok := a.registry.Get(inv.Tool)
	if !ok {
		return tools.Failed(fmt.Errorf("unknown tool %q", inv.Tool))
	}

	if err := tool.Validate(inv.Params); err != nil {
		if errors.Is(err, tools.ErrSafetyBlocked) {
			config.DebugLog.Warn("command blocked", zap.Any("params", inv.Params), zap.Error(err))
		}
		return tools.Failed(err)
	}

	if req := tool.ShouldConfirm(inv.Params); req != nil && a.cfg.ConfirmDestructive {
		if a.confirm == nil || !a.confirm(ctx, *req) {
			config.DebugLog.Info("invocation declined", zap.String("tool", inv.Tool), zap.String("command", req.Command))
			return tools.Failed(fmt.Errorf("%w: %s", tools.ErrDeclined, req.Command))
		}
	}

	return tool.Execute(ctx, inv.Params)
}

func paramSummary(params tools.Params) string {
	for _, key := range []string{"command", "query", "absolute_path"} {
		if v, ok := params[key].(string); ok {
			return v
		}
	}
	return fmt.Sprint(params)
}

// Prepare gathers tool output for messages and returns the assembled
// conversation to send.
func (a *Agent) Prepare(ctx context.Context, messages []model.Message) []model.Message {
	return Assemble(messages, a.Gather(ctx, messages), a.cfg.SystemPrompt)
}

// Complete prepares messages and returns the backend's full reply. An empty
// modelName uses the configured default. Only backend failures are returned.
func (a *Agent) Complete(ctx context.Context, messages []model.Message, modelName string) (string, error) {
	if timeout := a.cfg.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	prepared := a.Prepare(ctx, messages)
	return a.provider.Complete(ctx, model.ChatRequest{Model: modelName, Messages: prepared})
}

// Stream prepares messages and starts a streaming request. Tools run before
// Stream returns. The caller must drain or Close the stream.
func (a *Agent) Stream(ctx context.Context, messages []model.Message, modelName string) *provider.Stream {
	prepared := a.Prepare(ctx, messages)
	return provider.NewStreamWithTimeout(ctx, a.provider, model.ChatRequest{Model: modelName, Messages: prepared}, a.cfg.RequestTimeout())
}

// ListModels returns the backend's models, falling back to the default.
func (a *Agent) ListModels(ctx context.Context) []string {
	return a.provider.ListModels(ctx)
}

func (a *Agent) Ping(ctx context.Context) error {
	return a.provider.Ping(ctx)
}
