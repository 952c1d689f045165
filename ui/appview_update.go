package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orby/config"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	if a.dataModel.Streaming {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
		if _, ok := msg.(spinner.TickMsg); ok && a.currentResp.Len() == 0 {
			a.updateStreamingMessage()
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// title, separator, textarea (3) and status bar
		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-6, 1)
		a.textarea.SetWidth(a.width)

		a.ready = true
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		next, keyCmd := a.handleKey(msg)
		return next, tea.Batch(append(cmds, keyCmd)...)

	case streamChunkMsg, streamDoneMsg, streamErrorMsg, toolActivityMsg, confirmRequestMsg:
		next, streamCmd := a.handleStreamingMessage(msg)
		return next, tea.Batch(append(cmds, streamCmd, a.bridge.Listen())...)

	case markdownRenderedMsg, modelsListMsg, clipboardCopiedMsg, flashTickMsg, pingProviderMsg:
		next, uiCmd := a.handleUIMessage(msg)
		return next, tea.Batch(append(cmds, uiCmd)...)
	}

	if !a.showModelSelector && !a.showHelp && a.pendingConfirm == nil {
		a.textarea, cmd = a.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.keys
	k := msg.String()

	if k == "ctrl+c" || k == kb.GetActionKey("quit") {
		return a.quit()
	}

	// The confirmation modal holds the keyboard until answered.
	if a.pendingConfirm != nil {
		switch k {
		case kb.GetActionKey("confirm_yes"), "Y":
			a.answerConfirm(true)
		case kb.GetActionKey("confirm_no"), "N", "esc":
			a.answerConfirm(false)
		}
		return a, nil
	}

	if k == kb.GetActionKey("help") {
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.showHelp {
		if k == "esc" {
			a.showHelp = false
		}
		return a, nil
	}

	if a.showModelSelector {
		return a.handleModelSelectorKey(msg)
	}

	switch k {
	case kb.GetActionKey("model_selector"):
		a.closeAllModals()
		a.showModelSelector = true
		a.selectedModelIdx = indexOf(a.modelList, a.dataModel.ModelName)
		return a, nil

	case kb.GetActionKey("yank_last_response"):
		last, ok := a.dataModel.LastAssistantMessage()
		if !ok {
			return a.setFlash("Nothing to copy yet")
		}
		return a, copyToClipboard(last.Content)

	case kb.GetActionKey("yank_conversation"):
		return a, copyToClipboard(a.transcript())

	case kb.GetActionKey("clear_conversation"):
		if a.dataModel.Streaming {
			return a, nil
		}
		a.saveSession()
		a.dataModel.ClearConversation()
		a.updateViewportContent(true)
		return a.setFlash("Started a new conversation")

	case kb.GetActionKey("half_page_down"):
		a.viewport.HalfPageDown()
		return a, nil
	case kb.GetActionKey("half_page_up"):
		a.viewport.HalfPageUp()
		return a, nil
	case kb.GetActionKey("page_down"), "pgdown":
		a.viewport.PageDown()
		return a, nil
	case kb.GetActionKey("page_up"), "pgup":
		a.viewport.PageUp()
		return a, nil
	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, nil
	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, nil

	case "esc":
		if a.dataModel.Streaming {
			a.cancelStreaming()
			a.appendSystem("Request cancelled")
			a.updateViewportContent(true)
		}
		return a, nil

	case "enter":
		return a.sendMessage()
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) sendMessage() (AppView, tea.Cmd) {
	input := strings.TrimSpace(a.textarea.Value())
	if input == "" || a.dataModel.Streaming {
		return a, nil
	}
	a.textarea.Reset()
	a.notices = nil

	a.dataModel.AddUserMessage(input)
	userIdx := len(a.dataModel.Messages) - 1
	a.dataModel.Messages[userIdx].Rendered = input

	a.dataModel.Streaming = true
	a.currentResp.Reset()
	a.requestSeq++

	ctx, cancel := context.WithCancel(context.Background())
	a.cancelRequest = cancel

	seq := a.requestSeq
	messages := a.dataModel.BuildRequestMessages()
	modelName := a.dataModel.ModelName
	bridge, ag := a.bridge, a.agent

	config.DebugLog.Debug("sending prompt",
		zap.Int("seq", seq),
		zap.String("model", modelName),
		zap.Int("chars", len(input)))

	a.updateStreamingMessage()
	return a, tea.Batch(
		a.loadingSpinner.Tick,
		func() tea.Msg {
			bridge.runRequest(ctx, ag, seq, messages, modelName)
			return nil
		},
	)
}

func (a *AppView) cancelStreaming() {
	if a.cancelRequest != nil {
		a.cancelRequest()
		a.cancelRequest = nil
	}
	a.dataModel.Streaming = false
	a.currentResp.Reset()
}

func (a *AppView) answerConfirm(ok bool) {
	a.pendingConfirm.Reply <- ok
	config.DebugLog.Info("confirmation answered",
		zap.String("command", a.pendingConfirm.Request.Command),
		zap.Bool("approved", ok))
	a.pendingConfirm = nil
}

func (a AppView) handleModelSelectorKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.keys
	k := msg.String()
	list := a.displayModelList()

	switch k {
	case "esc", kb.GetActionKey("close_model_selector"):
		if a.modelFilterMode {
			a.modelFilterMode = false
			a.modelFilterInput.Reset()
			a.modelFilterInput.Blur()
			return a, nil
		}
		a.closeAllModals()
		return a, nil

	case kb.GetActionKey("model_selector_down"):
		if a.selectedModelIdx < len(list)-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case kb.GetActionKey("model_selector_up"):
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "enter":
		if a.selectedModelIdx >= 0 && a.selectedModelIdx < len(list) {
			name := list[a.selectedModelIdx]
			a.dataModel.SetModelName(name)
			a.closeAllModals()
			a.modelFilterInput.Reset()
			return a.setFlash(fmt.Sprintf("Model changed to %s", name))
		}
		return a, nil
	}

	if a.modelFilterMode {
		var cmd tea.Cmd
		a.modelFilterInput, cmd = a.modelFilterInput.Update(msg)
		a.filteredModelList = filterModels(a.modelFilterInput.Value(), a.modelList)
		if a.selectedModelIdx >= len(a.filteredModelList) {
			a.selectedModelIdx = max(len(a.filteredModelList)-1, 0)
		}
		return a, cmd
	}

	if k == kb.GetActionKey("model_selector_filter") {
		a.modelFilterMode = true
		a.selectedModelIdx = 0
		return a, a.modelFilterInput.Focus()
	}
	return a, nil
}

func filterModels(query string, models []string) []string {
	if query == "" {
		return models
	}
	matches := fuzzy.Find(query, models)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = models[m.Index]
	}
	return out
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return 0
}

func (a AppView) quit() (AppView, tea.Cmd) {
	config.DebugLog.Info("quit requested")
	a.cancelStreaming()
	if a.pendingConfirm != nil {
		a.answerConfirm(false)
	}
	a.saveSession()
	a.dataModel.Quitting = true
	return a, tea.Quit
}

func (a *AppView) saveSession() {
	if err := a.dataModel.SaveSession(); err != nil {
		config.DebugLog.Warn("failed to save session", zap.Error(err))
	}
}

func (a AppView) setFlash(text string) (AppView, tea.Cmd) {
	a.flash = text
	return a, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return flashTickMsg{}
	})
}

func (a AppView) transcript() string {
	var b strings.Builder
	for _, msg := range a.dataModel.Messages {
		fmt.Fprintf(&b, "[%s] %s:\n%s\n\n", msg.Timestamp.Format("15:04"), roleName(msg.Role), msg.Content)
	}
	return b.String()
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardCopiedMsg{Err: clipboard.WriteAll(text)}
	}
}
