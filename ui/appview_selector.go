package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func renderModelSelector(models []string, selectedIdx int, currentModel string, filterMode bool, filterInput textinput.Model, total int, width, height int) string {
	modalWidth := min(width-10, 80)
	if modalWidth < 20 {
		modalWidth = max(width, 1)
	}
	modalHeight := height - 6

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Select Model")

	var header string
	switch {
	case filterMode:
		header = filterInput.View()
	case len(models) == total:
		header = fmt.Sprintf("%d models", total)
	default:
		header = fmt.Sprintf("%d of %d models", len(models), total)
	}

	headerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(header)

	var modelLines []string
	maxLines := max(modalHeight-8, 1)

	if len(models) == 0 {
		emptyMsg := "No models available"
		if filterMode {
			emptyMsg = "No matches found"
		}
		modelLines = append(modelLines, lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(emptyMsg))
	} else {
		startIdx, endIdx := visibleRange(len(models), selectedIdx, maxLines)

		for i := startIdx; i < endIdx; i++ {
			name := models[i]

			indicator := "  "
			if i == selectedIdx {
				indicator = "▶ "
			}
			currentMarker := ""
			if name == currentModel {
				currentMarker = " (current)"
			}

			line := runewidth.Truncate(indicator+name+currentMarker, modalWidth, "…")

			lineStyle := lipgloss.NewStyle()
			if i == selectedIdx {
				lineStyle = SelectedStyle
			} else if name == currentModel {
				lineStyle = lineStyle.Foreground(accentColor).Bold(true)
			}

			modelLines = append(modelLines, lipgloss.NewStyle().
				Width(modalWidth).
				Render(lineStyle.Render(line)))
		}
	}

	emptyLine := strings.Repeat(" ", modalWidth)
	modelLines = append([]string{emptyLine}, modelLines...)
	modelLines = append(modelLines, emptyLine)

	var footerText string
	if filterMode {
		footerText = FormatFooter("Type", "to filter", "↑/↓", "Navigate", "Enter", "Select", "Esc", "Cancel")
	} else {
		footerText = FormatFooter("/", "Filter", "↑/↓", "Navigate", "Enter", "Select", "Esc", "Exit")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footerText)

	sections := []string{titleSection, headerSection}
	sections = append(sections, modelLines...)
	sections = append(sections, footerSection)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

// visibleRange returns the window of a list of n items that keeps selected
// in view when at most maxLines fit.
func visibleRange(n, selected, maxLines int) (int, int) {
	if n <= maxLines {
		return 0, n
	}
	switch {
	case selected < maxLines/2:
		return 0, maxLines
	case selected >= n-maxLines/2:
		return n - maxLines, n
	default:
		start := selected - maxLines/2
		return start, start + maxLines
	}
}
