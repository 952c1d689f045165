package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"orby/agent"
	"orby/config"
	"orby/model"
	"orby/provider"
	"orby/provider/testutil"
	"orby/security"
	"orby/storage"
	"orby/tools"
)

type harness struct {
	mock *testutil.MockProvider
	out  *bytes.Buffer
	repl *REPL
	st   *model.Model
}

func newHarness(t *testing.T, input string, opts ...Option) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.SystemPrompt = "You are Orby."
	cfg.EnableOnlineSearch = false

	mock := testutil.NewMockProvider("llama3.2")
	mock.ListModelsFunc = func(context.Context) []string {
		return []string{"llama3.2", "qwen2.5-coder:7b", "mistral"}
	}

	out := &bytes.Buffer{}
	term := NewTerminal(strings.NewReader(input), out)

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewShellTool(5 * time.Second))
	a := agent.New(cfg, mock, registry, agent.WithConfirmer(term.Confirm), agent.WithObserver(term.ToolActivity))

	sessions, err := storage.NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st := model.NewModel(cfg, sessions, "test")

	return &harness{mock: mock, out: out, repl: New(a, st, term, opts...), st: st}
}

func TestRunPromptAndExit(t *testing.T) {
	h := newHarness(t, "hello\nexit\n")

	if err := h.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := h.out.String()
	for _, want := range []string{"Starting Orby chat (mock, llama3.2)", "Orby: Mock response", "Goodbye!"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	list, err := h.st.Sessions.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].MessageCount != 2 || list[0].Name != "hello" {
		t.Errorf("saved sessions = %+v", list)
	}
}

func TestRunEndsOnEOF(t *testing.T) {
	h := newHarness(t, "config")

	if err := h.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Backend: ollama") || !strings.Contains(h.out.String(), "Goodbye!") {
		t.Errorf("output:\n%s", h.out.String())
	}
}

func TestRequestsAreStateless(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	for _, line := range []string{"first question", "second question"} {
		if err := h.repl.HandleLine(ctx, line); err != nil {
			t.Fatal(err)
		}
	}

	reqs := h.mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	last := reqs[1].Messages
	if len(last) != 2 || last[0].Role != model.RoleSystem || last[1].Content != "second question" {
		t.Errorf("second request = %+v", last)
	}
	if len(h.st.Messages) != 4 {
		t.Errorf("transcript has %d messages, want 4", len(h.st.Messages))
	}
}

func TestExitCommands(t *testing.T) {
	h := newHarness(t, "")
	for _, cmd := range []string{"exit", "QUIT", " q "} {
		if err := h.repl.HandleLine(context.Background(), cmd); !errors.Is(err, ErrUserExit) {
			t.Errorf("HandleLine(%q) = %v, want ErrUserExit", cmd, err)
		}
	}
}

func TestModelCommand(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	if err := h.repl.HandleLine(ctx, "model qwen"); err != nil {
		t.Fatal(err)
	}
	if h.st.ModelName != "qwen" {
		t.Errorf("ModelName = %q, want qwen", h.st.ModelName)
	}
	if !strings.Contains(h.out.String(), "Model changed to: qwen") || !strings.Contains(h.out.String(), "Did you mean: qwen2.5-coder:7b") {
		t.Errorf("output:\n%s", h.out.String())
	}

	h.out.Reset()
	if err := h.repl.HandleLine(ctx, "model mistral"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(h.out.String(), "Did you mean") {
		t.Errorf("listed model produced suggestions:\n%s", h.out.String())
	}

	if err := h.repl.HandleLine(ctx, "say hi"); err != nil {
		t.Fatal(err)
	}
	if got := h.mock.LastRequest().Model; got != "mistral" {
		t.Errorf("request model = %q, want mistral", got)
	}
}

func TestModelsCommand(t *testing.T) {
	h := newHarness(t, "")
	if err := h.repl.HandleLine(context.Background(), "models"); err != nil {
		t.Fatal(err)
	}
	got := h.out.String()
	if !strings.Contains(got, "* llama3.2") || !strings.Contains(got, "  mistral") {
		t.Errorf("output:\n%s", got)
	}
}

func TestCopyCommand(t *testing.T) {
	var copied string
	h := newHarness(t, "", WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	ctx := context.Background()

	if err := h.repl.HandleLine(ctx, "copy"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.out.String(), "Nothing to copy") {
		t.Errorf("output:\n%s", h.out.String())
	}

	if err := h.repl.HandleLine(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if err := h.repl.HandleLine(ctx, "copy"); err != nil {
		t.Fatal(err)
	}
	if copied != "Mock response" {
		t.Errorf("copied %q", copied)
	}
}

func TestNoStreamRendersPanel(t *testing.T) {
	h := newHarness(t, "", WithStreaming(false), WithWidth(60))
	h.mock.CompleteFunc = func(context.Context, model.ChatRequest) (string, error) {
		return "**done**", nil
	}

	if err := h.repl.Ask(context.Background(), "hello"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	got := h.out.String()
	if !strings.Contains(got, "Orby's Response") || !strings.Contains(got, "done") {
		t.Errorf("output:\n%s", got)
	}
}

func TestBackendErrorIsPrinted(t *testing.T) {
	h := newHarness(t, "")
	h.mock.ChatFunc = func(context.Context, model.ChatRequest, model.StreamCallback) error {
		return &provider.BackendError{
			Backend: "ollama",
			Kind:    provider.ErrModelNotFound,
			Err:     &provider.ModelNotFoundError{Model: "nope", Hint: "ollama pull nope"},
		}
	}

	if err := h.repl.HandleLine(context.Background(), "hello"); err != nil {
		t.Fatalf("HandleLine() = %v, backend errors should not end the loop", err)
	}
	if !strings.Contains(h.out.String(), "Error: Model 'nope' not found. Please pull the model first with: ollama pull nope") {
		t.Errorf("output:\n%s", h.out.String())
	}
	if _, ok := h.st.LastAssistantMessage(); ok {
		t.Error("failed request recorded an assistant reply")
	}
}

func TestRiskyCommandAsksTerminal(t *testing.T) {
	h := newHarness(t, "n\n")
	if err := h.repl.HandleLine(context.Background(), "execute: rm -i notes.txt"); err != nil {
		t.Fatal(err)
	}
	got := h.out.String()
	if !strings.Contains(got, "Confirm Shell Command") || !strings.Contains(got, "Skipped") {
		t.Errorf("output:\n%s", got)
	}
	if !strings.Contains(got, "✗ run_shell_command (terminal_execution)") {
		t.Errorf("tool activity missing:\n%s", got)
	}
}

func TestTerminalConfirm(t *testing.T) {
	req := security.ConfirmationRequest{Title: "Confirm Shell Command", Command: "rm x", Message: "sure?"}
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		term := NewTerminal(strings.NewReader(tt.input), &bytes.Buffer{})
		if got := term.Confirm(context.Background(), req); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if NewTerminal(strings.NewReader("y\n"), &bytes.Buffer{}).Confirm(ctx, req) {
		t.Error("Confirm() approved after cancellation")
	}
}

func TestTerminalConfirmNotInterleaved(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(strings.NewReader("n\n"), out)
	req := security.ConfirmationRequest{Title: "Confirm Shell Command", Command: "rm x", Message: "sure?"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			term.ToolActivity(agent.CategorySearch, tools.WebSearchToolName, tools.Result{Success: true, ReturnDisplay: "found"})
		}()
	}
	term.Confirm(context.Background(), req)
	wg.Wait()

	want := "\n⚠️  Confirm Shell Command\nsure?\nRun it? [y/N] ⊘ Skipped\n"
	if !strings.Contains(out.String(), want) {
		t.Errorf("confirmation prompt was split:\n%s", out.String())
	}
	if n := strings.Count(out.String(), "found"); n != 20 {
		t.Errorf("got %d tool lines, want 20", n)
	}
}

func TestSuggest(t *testing.T) {
	got := suggest("lama", []string{"llama3.2", "llama3.1:70b", "mistral", "codellama", "phi3"})
	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("suggest() = %v", got)
	}
	for _, s := range got {
		if !strings.Contains(s, "lama") {
			t.Errorf("unexpected suggestion %q", s)
		}
	}
}
