package ui

import (
	"errors"
	"strings"
	"testing"

	"orby/agent"
	"orby/config"
	appmodel "orby/model"
	"orby/provider"
	"orby/provider/testutil"
	"orby/security"
	"orby/storage"
	"orby/tools"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func newTestView(t *testing.T, a *agent.Agent, b *Bridge) AppView {
	t.Helper()

	if a == nil {
		a = agent.New(config.Default(), testutil.NewMockProvider("llama3.2"), tools.NewRegistry())
	}
	if b == nil {
		b = NewBridge()
	}
	sessions, err := storage.NewSessionStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.DefaultModel = "llama3.2"
	state := appmodel.NewModel(cfg, sessions, "test")

	v := NewAppView(state, a, b, config.DefaultKeybindings())
	return update(t, v, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func update(t *testing.T, v AppView, msg tea.Msg) AppView {
	t.Helper()
	next, _ := v.Update(msg)
	av, ok := next.(AppView)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return av
}

func runes(s string, alt bool) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: alt}
}

func TestWindowSize(t *testing.T) {
	v := newTestView(t, nil, nil)
	if !v.ready {
		t.Fatal("view not ready after WindowSizeMsg")
	}
	if v.viewport.Height != 24 || v.viewport.Width != 100 {
		t.Errorf("viewport = %dx%d, want 100x24", v.viewport.Width, v.viewport.Height)
	}
	if !strings.Contains(v.View(), "Orby - llama3.2") {
		t.Errorf("title missing from view:\n%s", v.View())
	}
}

func TestEnterStartsRequest(t *testing.T) {
	v := newTestView(t, nil, nil)

	v = update(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	if v.dataModel.Streaming {
		t.Fatal("empty input started a request")
	}

	v.textarea.SetValue("  hello  ")
	next, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v = next.(AppView)

	if !v.dataModel.Streaming || cmd == nil {
		t.Fatal("request not started")
	}
	if v.requestSeq != 1 || v.cancelRequest == nil {
		t.Errorf("requestSeq = %d, cancel set = %v", v.requestSeq, v.cancelRequest != nil)
	}
	if v.textarea.Value() != "" {
		t.Errorf("textarea not cleared: %q", v.textarea.Value())
	}
	want := []string{appmodel.RoleUser}
	var got []string
	for _, m := range v.dataModel.Messages {
		got = append(got, m.Role)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	v.cancelStreaming()
}

func TestStreamingFlow(t *testing.T) {
	v := newTestView(t, nil, nil)
	v.textarea.SetValue("hello")
	v = update(t, v, tea.KeyMsg{Type: tea.KeyEnter})

	v = update(t, v, streamChunkMsg{Seq: 1, Chunk: "Hi "})
	v = update(t, v, streamChunkMsg{Seq: 99, Chunk: "stale"})
	v = update(t, v, streamChunkMsg{Seq: 1, Chunk: "there"})
	if got := v.currentResp.String(); got != "Hi there" {
		t.Errorf("partial reply = %q", got)
	}

	v = update(t, v, streamDoneMsg{Seq: 1, FullResponse: "Hi there"})
	if v.dataModel.Streaming {
		t.Error("still streaming after done")
	}
	last, ok := v.dataModel.LastAssistantMessage()
	if !ok || last.Content != "Hi there" {
		t.Errorf("last assistant message = %+v", last)
	}

	list, err := v.dataModel.Sessions.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].MessageCount != 2 {
		t.Errorf("saved sessions = %+v", list)
	}

	v = update(t, v, markdownRenderedMsg{MessageIndex: 1, Rendered: "rendered"})
	if v.dataModel.Messages[1].Rendered != "rendered" {
		t.Errorf("Rendered = %q", v.dataModel.Messages[1].Rendered)
	}
}

func TestStreamError(t *testing.T) {
	v := newTestView(t, nil, nil)
	v.textarea.SetValue("hello")
	v = update(t, v, tea.KeyMsg{Type: tea.KeyEnter})

	err := &provider.BackendError{Backend: "ollama", Kind: provider.ErrBackendUnavailable, Err: errors.New("connection refused")}
	v = update(t, v, streamErrorMsg{Seq: 1, Err: err})

	if v.dataModel.Streaming {
		t.Error("still streaming after error")
	}
	if len(v.notices) != 1 || v.notices[0].kind != noticeError {
		t.Fatalf("notices = %+v", v.notices)
	}
	if _, ok := v.dataModel.LastAssistantMessage(); ok {
		t.Error("failed request recorded an assistant reply")
	}
}

func TestEscCancelsRequest(t *testing.T) {
	v := newTestView(t, nil, nil)
	v.textarea.SetValue("hello")
	v = update(t, v, tea.KeyMsg{Type: tea.KeyEnter})

	v = update(t, v, tea.KeyMsg{Type: tea.KeyEsc})
	if v.dataModel.Streaming || v.cancelRequest != nil {
		t.Fatal("request not cancelled")
	}

	v = update(t, v, streamDoneMsg{Seq: 1, FullResponse: "late"})
	if _, ok := v.dataModel.LastAssistantMessage(); ok {
		t.Error("reply of a cancelled request was recorded")
	}
}

func TestConfirmationFromAbandonedPromptIsDeclined(t *testing.T) {
	v := newTestView(t, nil, nil)
	stale := make(chan bool, 1)
	fresh := make(chan bool, 1)

	v = update(t, v, confirmRequestMsg{Request: security.ConfirmationRequest{Command: "rm old"}, Reply: stale})
	v = update(t, v, confirmRequestMsg{Request: security.ConfirmationRequest{Command: "rm new"}, Reply: fresh})

	if got := <-stale; got {
		t.Error("abandoned confirmation approved")
	}
	if v.pendingConfirm == nil || v.pendingConfirm.Request.Command != "rm new" {
		t.Fatalf("pending = %+v, want rm new", v.pendingConfirm)
	}
	update(t, v, runes("y", false))
	if got := <-fresh; !got {
		t.Error("current confirmation not approved")
	}
}

func TestConfirmationModal(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{runes("y", false), true},
		{runes("n", false), false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			v := newTestView(t, nil, nil)
			reply := make(chan bool, 1)
			v = update(t, v, confirmRequestMsg{
				Request: security.ConfirmationRequest{Title: "Confirm Shell Command", Command: "rm -i x", Message: "Run it?"},
				Reply:   reply,
			})

			view := v.View()
			if !strings.Contains(view, "Confirm Shell Command") || !strings.Contains(view, "rm -i x") {
				t.Errorf("modal view:\n%s", view)
			}

			// Other keys are swallowed while the modal is open.
			v = update(t, v, runes("x", false))
			if v.pendingConfirm == nil {
				t.Fatal("modal closed by an unrelated key")
			}

			v = update(t, v, tt.key)
			if v.pendingConfirm != nil {
				t.Fatal("modal still open")
			}
			if got := <-reply; got != tt.want {
				t.Errorf("reply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolActivityNotice(t *testing.T) {
	v := newTestView(t, nil, nil)
	v = update(t, v, toolActivityMsg{Tool: tools.ShellToolName, Category: "terminal_execution", Display: "hi", Success: true})

	if len(v.notices) != 1 || v.notices[0].text != "✓ run_shell_command (terminal_execution): hi" {
		t.Errorf("notices = %+v", v.notices)
	}
}

func TestModelSelector(t *testing.T) {
	v := newTestView(t, nil, nil)
	v = update(t, v, modelsListMsg{Models: []string{"llama3.2", "mistral", "qwen2.5-coder:7b"}})

	v = update(t, v, runes("m", true))
	if !v.showModelSelector {
		t.Fatal("selector not shown")
	}
	if v.selectedModelIdx != 0 {
		t.Errorf("selected = %d, want current model", v.selectedModelIdx)
	}
	if !strings.Contains(v.View(), "Select Model") {
		t.Error("selector not rendered")
	}

	v = update(t, v, tea.KeyMsg{Type: tea.KeyDown})
	v = update(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	if v.showModelSelector {
		t.Error("selector still open")
	}
	if v.dataModel.ModelName != "mistral" {
		t.Errorf("ModelName = %q, want mistral", v.dataModel.ModelName)
	}
}

func TestModelSelectorFilter(t *testing.T) {
	v := newTestView(t, nil, nil)
	v = update(t, v, modelsListMsg{Models: []string{"llama3.2", "mistral", "qwen2.5-coder:7b"}})
	v = update(t, v, runes("m", true))

	v = update(t, v, runes("/", false))
	if !v.modelFilterMode {
		t.Fatal("filter mode not entered")
	}
	for _, r := range "qw" {
		v = update(t, v, runes(string(r), false))
	}
	if diff := cmp.Diff([]string{"qwen2.5-coder:7b"}, v.displayModelList()); diff != "" {
		t.Errorf("filtered list mismatch (-want +got):\n%s", diff)
	}

	v = update(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	if v.dataModel.ModelName != "qwen2.5-coder:7b" {
		t.Errorf("ModelName = %q", v.dataModel.ModelName)
	}
}

func TestHelpToggle(t *testing.T) {
	v := newTestView(t, nil, nil)
	v = update(t, v, runes("h", true))
	if !v.showHelp || !strings.Contains(v.View(), "Keyboard Shortcuts") {
		t.Fatal("help not shown")
	}
	v = update(t, v, tea.KeyMsg{Type: tea.KeyEsc})
	if v.showHelp {
		t.Error("help still shown after Esc")
	}
}

func TestClearConversation(t *testing.T) {
	v := newTestView(t, nil, nil)
	v.dataModel.AddUserMessage("hello")
	v.dataModel.AddAssistantMessage("hi")

	v = update(t, v, runes("n", true))
	if len(v.dataModel.Messages) != 0 {
		t.Errorf("messages = %d after clear", len(v.dataModel.Messages))
	}
	list, err := v.dataModel.Sessions.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("conversation not saved before clearing: %+v", list)
	}
}

func TestQuitSavesSession(t *testing.T) {
	v := newTestView(t, nil, nil)
	v.dataModel.AddUserMessage("hello")

	next, cmd := v.Update(runes("q", true))
	v = next.(AppView)
	if cmd == nil || !v.dataModel.Quitting {
		t.Fatal("quit not requested")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit command does not quit")
	}
	if list, _ := v.dataModel.Sessions.List(); len(list) != 1 {
		t.Errorf("sessions = %+v", list)
	}
}

func TestPingStatus(t *testing.T) {
	v := newTestView(t, nil, nil)
	v = update(t, v, pingProviderMsg{Backend: "ollama", Valid: false, Err: errors.New("refused")})
	if v.backendOK || v.backendStatus != "ollama unreachable" {
		t.Errorf("status = %q ok=%v", v.backendStatus, v.backendOK)
	}
	v = update(t, v, pingProviderMsg{Backend: "ollama", Valid: true})
	if !v.backendOK || v.backendStatus != "ollama" {
		t.Errorf("status = %q ok=%v", v.backendStatus, v.backendOK)
	}
}

func TestVisibleRange(t *testing.T) {
	tests := []struct {
		n, sel, limit      int
		wantStart, wantEnd int
	}{
		{5, 2, 10, 0, 5},
		{20, 1, 10, 0, 10},
		{20, 18, 10, 10, 20},
		{20, 10, 10, 5, 15},
	}
	for _, tt := range tests {
		s, e := visibleRange(tt.n, tt.sel, tt.limit)
		if s != tt.wantStart || e != tt.wantEnd {
			t.Errorf("visibleRange(%d, %d, %d) = %d, %d; want %d, %d", tt.n, tt.sel, tt.limit, s, e, tt.wantStart, tt.wantEnd)
		}
	}
}
