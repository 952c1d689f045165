// Package repl implements the interactive chat loop and single-prompt mode.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"orby/agent"
	"orby/config"
	"orby/model"
	"orby/render"

	"github.com/atotto/clipboard"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// ErrUserExit is returned by HandleLine when the user asks to leave.
var ErrUserExit = errors.New("user requested exit")

const responseTitle = "Orby's Response"

type Option func(*REPL)

// WithStreaming selects incremental output. When off, replies are rendered
// as markdown in a panel once complete.
func WithStreaming(stream bool) Option {
	return func(r *REPL) { r.stream = stream }
}

func WithWidth(width int) Option {
	return func(r *REPL) { r.width = width }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(r *REPL) { r.copyText = write }
}

type REPL struct {
	agent *agent.Agent
	state *model.Model
	term  *Terminal

	stream   bool
	width    int
	copyText func(string) error

	knownModels []string
}

func New(a *agent.Agent, state *model.Model, term *Terminal, opts ...Option) *REPL {
	r := &REPL{
		agent:    a,
		state:    state,
		term:     term,
		stream:   true,
		width:    render.DefaultWidth,
		copyText: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until the user exits or input ends, then saves the
// session.
func (r *REPL) Run(ctx context.Context) error {
	r.term.Printf("Starting Orby chat (%s, %s)...\n", r.agent.Provider().Name(), r.state.ModelName)
	r.term.Printf("Type 'exit' to quit, 'model' to change model, 'config' to see config, 'help' for more\n\n")

	defer func() {
		if err := r.state.SaveSession(); err != nil {
			config.DebugLog.Warn("failed to save session", zap.Error(err))
			r.term.Printf("Warning: session not saved: %v\n", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.term.ReadLine("You: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.term.Printf("\nGoodbye!\n")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if err := r.HandleLine(ctx, line); err != nil {
			if errors.Is(err, ErrUserExit) {
				r.term.Printf("Goodbye!\n")
				return nil
			}
			return err
		}
	}
}

// HandleLine runs a loop command or sends line as a prompt. Backend errors
// are printed and do not end the loop.
func (r *REPL) HandleLine(ctx context.Context, line string) error {
	input := strings.TrimSpace(line)
	if input == "" {
		return nil
	}

	lower := strings.ToLower(input)
	switch {
	case lower == "exit" || lower == "quit" || lower == "q":
		return ErrUserExit
	case lower == "config":
		r.printConfig()
		return nil
	case lower == "model":
		r.term.Printf("Current model: %s\n", r.state.ModelName)
		return nil
	case strings.HasPrefix(lower, "model "):
		r.switchModel(ctx, strings.TrimSpace(input[len("model "):]))
		return nil
	case lower == "models":
		r.printModels(ctx)
		return nil
	case lower == "copy":
		r.copyLast()
		return nil
	case lower == "clear" || lower == "cls":
		r.state.ClearConversation()
		r.term.Printf("\033[H\033[2J")
		return nil
	case lower == "help":
		r.printHelp()
		return nil
	}

	if err := r.Ask(ctx, input); err != nil {
		r.term.Printf("Error: %v\n", err)
	}
	return nil
}

// Ask sends a single prompt and prints the reply.
func (r *REPL) Ask(ctx context.Context, prompt string) error {
	r.state.AddUserMessage(prompt)
	messages := r.state.BuildRequestMessages()

	var reply string
	var err error
	if r.stream {
		reply, err = r.streamReply(ctx, messages)
	} else {
		reply, err = r.agent.Complete(ctx, messages, r.state.ModelName)
		if err == nil {
			r.term.Printf("%s\n", render.Panel(responseTitle, reply, r.width))
		}
	}
	if err != nil {
		return err
	}

	r.state.AddAssistantMessage(reply)
	return nil
}

func (r *REPL) streamReply(ctx context.Context, messages []model.Message) (string, error) {
	stream := r.agent.Stream(ctx, messages, r.state.ModelName)
	defer stream.Close()

	var b strings.Builder
	r.term.Printf("Orby: ")
	for stream.Next() {
		chunk := stream.Current()
		b.WriteString(chunk)
		r.term.Printf("%s", chunk)
	}
	r.term.Printf("\n")

	if err := stream.Err(); err != nil {
		return b.String(), err
	}
	return b.String(), nil
}

func (r *REPL) printConfig() {
	cfg := r.state.Config
	prompt := cfg.SystemPrompt
	if runes := []rune(prompt); len(runes) > 50 {
		prompt = string(runes[:50]) + "..."
	}

	r.term.Printf("Backend: %s\n", cfg.Backend)
	r.term.Printf("Base URL: %s\n", cfg.BaseURL())
	r.term.Printf("Model: %s\n", r.state.ModelName)
	r.term.Printf("Temperature: %.2f\n", cfg.Temperature)
	r.term.Printf("Terminal execution: %t\n", cfg.EnableTerminalExecution)
	r.term.Printf("Online search: %t (%s)\n", cfg.EnableOnlineSearch, cfg.SearchProvider)
	r.term.Printf("File read: %t\n", cfg.EnableFileRead)
	r.term.Printf("System Prompt: %s\n", prompt)
}

func (r *REPL) models(ctx context.Context) []string {
	if r.knownModels == nil {
		r.knownModels = r.agent.ListModels(ctx)
	}
	return r.knownModels
}

// switchModel changes the model for later prompts. Unknown names are still
// accepted since a backend may load models it does not list.
func (r *REPL) switchModel(ctx context.Context, name string) {
	if name == "" {
		r.term.Printf("Usage: model <name>\n")
		return
	}

	r.state.SetModelName(name)
	r.term.Printf("Model changed to: %s\n", name)

	available := r.models(ctx)
	if slices.Contains(available, name) {
		return
	}
	if suggestions := suggest(name, available); len(suggestions) > 0 {
		r.term.Printf("'%s' is not in the backend's model list. Did you mean: %s?\n", name, strings.Join(suggestions, ", "))
	}
}

func suggest(name string, available []string) []string {
	matches := fuzzy.Find(name, available)
	out := make([]string, 0, 3)
	for _, m := range matches {
		if len(out) == cap(out) {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

func (r *REPL) printModels(ctx context.Context) {
	r.knownModels = r.agent.ListModels(ctx)
	r.term.Printf("Models on %s:\n", r.agent.Provider().Name())
	for _, name := range r.knownModels {
		marker := " "
		if name == r.state.ModelName {
			marker = "*"
		}
		r.term.Printf(" %s %s\n", marker, name)
	}
}

func (r *REPL) copyLast() {
	msg, ok := r.state.LastAssistantMessage()
	if !ok {
		r.term.Printf("Nothing to copy yet.\n")
		return
	}
	if err := r.copyText(msg.Content); err != nil {
		r.term.Printf("Error: failed to copy to clipboard: %v\n", err)
		return
	}
	r.term.Printf("✓ Copied last response to clipboard\n")
}

func (r *REPL) printHelp() {
	r.term.Printf(`
Commands:
  help               Show this help
  config             Show the active configuration
  model <name>       Switch model
  models             List the backend's models
  copy               Copy the last response to the clipboard
  clear              Clear the conversation and the screen
  exit, quit, q      Leave

Tool triggers:
  execute: <cmd>     Run a shell command and attach its output
  search: <query>    Search the web and attach the results
  file: <path>       Attach the contents of a file

`)
}
