package ui

import (
	"fmt"
	"strings"
	"time"

	appmodel "orby/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func (a AppView) View() string {
	if !a.ready {
		return "Initializing..."
	}

	switch {
	case a.pendingConfirm != nil:
		return renderConfirmation(a.pendingConfirm.Request, a.width, a.height)
	case a.showHelp:
		return a.renderHelpModal(a.width, a.height)
	case a.showModelSelector:
		return renderModelSelector(a.displayModelList(), a.selectedModelIdx, a.dataModel.ModelName,
			a.modelFilterMode, a.modelFilterInput, len(a.modelList), a.width, a.height)
	}

	separator := DimStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTitle(),
		a.viewport.View(),
		separator,
		a.textarea.View(),
		a.renderStatusBar(),
	)
}

func (a AppView) renderTitle() string {
	status := a.backendStatus
	if !a.backendOK {
		status = ErrorStyle.Render(status)
	}
	title := fmt.Sprintf("Orby - %s - %s", a.dataModel.ModelName, status)
	if a.width > 0 && lipgloss.Width(title) > a.width {
		title = runewidth.Truncate(fmt.Sprintf("Orby - %s - %s", a.dataModel.ModelName, a.backendStatus), a.width, "…")
	}
	return TitleStyle.Render(title)
}

func (a AppView) renderStatusBar() string {
	kb := a.keys
	if a.flash != "" {
		return StatusStyle.Render(a.flash)
	}
	if a.dataModel.Streaming {
		return StatusStyle.Render(a.loadingSpinner.View() + " Working... (Esc to cancel)")
	}
	left := FormatFooter(
		"Enter", "Send",
		kb.DisplayActionKey("model_selector"), "Model",
		kb.DisplayActionKey("help"), "Help",
		kb.DisplayActionKey("quit"), "Quit",
	)
	return StatusStyle.Render(runewidth.Truncate(left, max(a.width, 1), ""))
}

func roleName(role string) string {
	switch role {
	case appmodel.RoleUser:
		return "You"
	case appmodel.RoleAssistant:
		return "Orby"
	default:
		return "System"
	}
}

func (a AppView) renderTranscript(b *strings.Builder) {
	for _, msg := range a.dataModel.Messages {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))
		content := msg.Rendered
		if content == "" {
			content = msg.Content
		}

		switch msg.Role {
		case appmodel.RoleUser:
			b.WriteString(formatUserMessage(timestamp, UserStyle.Render(roleName(msg.Role)), content))
		case appmodel.RoleAssistant:
			fmt.Fprintf(b, "%s %s\n%s\n\n", timestamp, AssistantStyle.Render(roleName(msg.Role)), content)
		default:
			fmt.Fprintf(b, "%s %s\n%s\n\n", timestamp, DimStyle.Render(roleName(msg.Role)), content)
		}
	}
}

func (a AppView) renderNotices(b *strings.Builder) {
	for _, n := range a.notices {
		switch n.kind {
		case noticeTool:
			b.WriteString(ToolStyle.Render(n.text))
		case noticeError:
			b.WriteString(ErrorStyle.Render(n.text))
		default:
			b.WriteString(DimStyle.Render(n.text))
		}
		b.WriteString("\n")
	}
	if len(a.notices) > 0 {
		b.WriteString("\n")
	}
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.dataModel.Messages) == 0 && len(a.notices) == 0 {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Start chatting!"))
		return
	}

	var content strings.Builder
	a.renderTranscript(&content)
	a.renderNotices(&content)

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// updateStreamingMessage redraws the transcript with the partial reply of
// the running request.
func (a *AppView) updateStreamingMessage() {
	var content strings.Builder
	a.renderTranscript(&content)
	a.renderNotices(&content)

	timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
	role := AssistantStyle.Render(roleName(appmodel.RoleAssistant))

	// Spinner until the first chunk, then the text with a cursor.
	streamContent := a.loadingSpinner.View()
	if a.currentResp.Len() > 0 {
		streamContent = a.currentResp.String() + "▋"
	}
	fmt.Fprintf(&content, "%s %s\n%s\n\n", timestamp, role, streamContent)

	a.viewport.SetContent(content.String())
	a.viewport.GotoBottom()
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	fmt.Fprintf(&result, "%s %s %s\n", bar, timestamp, role)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&result, "%s %s\n", bar, line)
	}
	result.WriteString("\n")
	return result.String()
}
