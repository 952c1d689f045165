package ui

import (
	"context"
	"errors"
	"fmt"

	"orby/config"
	"orby/render"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeTool
	noticeError
)

type notice struct {
	kind noticeKind
	text string
}

func (a *AppView) appendSystem(text string) {
	a.notices = append(a.notices, notice{kind: noticeInfo, text: text})
}

// handleStreamingMessage handles events sent through the bridge while a
// request runs. Events for any request other than the current one are
// dropped.
func (a AppView) handleStreamingMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case streamChunkMsg:
		if msg.Seq != a.requestSeq || !a.dataModel.Streaming {
			return a, nil
		}
		a.currentResp.WriteString(msg.Chunk)
		a.updateStreamingMessage()
		return a, nil

	case streamDoneMsg:
		if msg.Seq != a.requestSeq || !a.dataModel.Streaming {
			return a, nil
		}
		config.DebugLog.Debug("stream done",
			zap.Int("seq", msg.Seq),
			zap.Int("chars", len(msg.FullResponse)))

		a.dataModel.Streaming = false
		a.cancelRequest = nil
		a.currentResp.Reset()

		a.dataModel.AddAssistantMessage(msg.FullResponse)
		idx := len(a.dataModel.Messages) - 1
		a.dataModel.Messages[idx].Rendered = msg.FullResponse
		a.updateViewportContent(true)
		a.saveSession()

		return a, a.renderMarkdownAsync(idx, msg.FullResponse)

	case streamErrorMsg:
		if msg.Seq != a.requestSeq {
			return a, nil
		}
		a.dataModel.Streaming = false
		a.cancelRequest = nil
		a.currentResp.Reset()

		if !errors.Is(msg.Err, context.Canceled) {
			config.DebugLog.Warn("request failed", zap.Error(msg.Err))
			a.notices = append(a.notices, notice{kind: noticeError, text: fmt.Sprintf("Error: %v", msg.Err)})
		}
		a.updateViewportContent(true)
		return a, nil

	case toolActivityMsg:
		mark := "✓"
		if !msg.Success {
			mark = "✗"
		}
		text := fmt.Sprintf("%s %s (%s)", mark, msg.Tool, msg.Category)
		if msg.Display != "" {
			text += ": " + msg.Display
		}
		a.notices = append(a.notices, notice{kind: noticeTool, text: text})
		a.updateStreamingMessage()
		return a, nil

	case confirmRequestMsg:
		// Only the shell tool asks, once per prompt, so a request still
		// pending here belongs to an abandoned prompt.
		if a.pendingConfirm != nil {
			a.pendingConfirm.Reply <- false
		}
		a.closeAllModals()
		a.pendingConfirm = &msg
		return a, nil
	}
	return a, nil
}

// handleUIMessage handles results of commands started by the view itself.
func (a AppView) handleUIMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case markdownRenderedMsg:
		if msg.MessageIndex < len(a.dataModel.Messages) {
			a.dataModel.Messages[msg.MessageIndex].Rendered = msg.Rendered
			if a.dataModel.Streaming {
				a.updateStreamingMessage()
			} else {
				a.updateViewportContent(true)
			}
		}
		return a, nil

	case modelsListMsg:
		a.modelList = msg.Models
		a.filteredModelList = filterModels(a.modelFilterInput.Value(), a.modelList)
		if msg.Err != nil {
			return a.setFlash(fmt.Sprintf("Could not list models: %v", msg.Err))
		}
		return a, nil

	case clipboardCopiedMsg:
		if msg.Err != nil {
			return a.setFlash(fmt.Sprintf("Copy failed: %v", msg.Err))
		}
		return a.setFlash("Copied to clipboard")

	case flashTickMsg:
		a.flash = ""
		return a, nil

	case pingProviderMsg:
		a.backendOK = msg.Valid
		if msg.Valid {
			a.backendStatus = msg.Backend
		} else {
			a.backendStatus = msg.Backend + " unreachable"
			config.DebugLog.Warn("backend unreachable", zap.String("backend", msg.Backend), zap.Error(msg.Err))
		}
		return a, nil
	}
	return a, nil
}

func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		return markdownRenderedMsg{
			MessageIndex: messageIndex,
			Rendered:     render.Markdown(content, width),
		}
	}
}
