package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type helpEntry struct {
	action string // keybinding action; empty when key is fixed
	key    string
	desc   string
}

type helpSection struct {
	title   string
	entries []helpEntry
}

var helpColumns = [][]helpSection{
	{
		{"Global", []helpEntry{
			{action: "clear_conversation", desc: "New conversation"},
			{action: "model_selector", desc: "Switch model"},
			{action: "help", desc: "Toggle this help"},
			{action: "quit", desc: "Save and quit"},
		}},
		{"Tools", []helpEntry{
			{key: "execute: <cmd>", desc: "Run a shell command"},
			{key: "search: <text>", desc: "Search the web"},
			{key: "file: <path>", desc: "Read a file"},
		}},
	},
	{
		{"Navigation", []helpEntry{
			{action: "half_page_down", desc: "Half page down"},
			{action: "half_page_up", desc: "Half page up"},
			{action: "page_down", desc: "Page down"},
			{action: "page_up", desc: "Page up"},
			{action: "scroll_to_top", desc: "Top"},
			{action: "scroll_to_bottom", desc: "Bottom"},
		}},
		{"Chat Actions", []helpEntry{
			{key: "Enter", desc: "Send"},
			{key: "Alt+Enter", desc: "New line"},
			{key: "Esc", desc: "Cancel request"},
			{action: "yank_last_response", desc: "Copy last reply"},
			{action: "yank_conversation", desc: "Copy conversation"},
		}},
	},
}

func (a AppView) renderHelpSection(s helpSection) string {
	heading := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	lines := []string{heading.Render(s.title)}
	for _, e := range s.entries {
		k := e.key
		if e.action != "" {
			k = a.keys.DisplayActionKey(e.action)
		}
		lines = append(lines, fmt.Sprintf("  %-15s %s", k, e.desc))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (a AppView) renderHelpModal(width, height int) string {
	column := lipgloss.NewStyle().Width(40).PaddingRight(2)

	cols := make([]string, 0, len(helpColumns))
	for _, sections := range helpColumns {
		var parts []string
		for i, s := range sections {
			if i > 0 {
				parts = append(parts, "")
			}
			parts = append(parts, a.renderHelpSection(s))
		}
		cols = append(cols, column.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(successColor).Bold(true).Render("Orby - Keyboard Shortcuts"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		"",
		DimStyle.Render(fmt.Sprintf("%s or Esc closes this help", a.keys.DisplayActionKey("help"))),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
