package ui

import (
	"orby/security"

	"github.com/charmbracelet/lipgloss"
)

const confirmWidth = 60

// renderConfirmation draws the prompt for a command waiting on the user.
// The command is shown verbatim so nothing is hidden by wrapping the
// message text.
func renderConfirmation(req security.ConfirmationRequest, width, height int) string {
	w := confirmWidth
	if width < w+10 {
		w = max(width-10, 20)
	}
	center := lipgloss.NewStyle().Width(w).Align(lipgloss.Center)

	title := req.Title
	if title == "" {
		title = "Confirm"
	}

	body := []string{
		center.Foreground(warningColor).Bold(true).Render(title),
		"",
		center.Foreground(dangerColor).Bold(true).Render(req.Command),
	}
	if req.Message != "" {
		body = append(body, "", center.Render(req.Message))
	}
	body = append(body, "", center.Foreground(dimColor).Render(FormatFooter("y", "Run", "n", "Skip")))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(warningColor).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, body...))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
