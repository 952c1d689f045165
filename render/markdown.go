// Package render turns model replies into terminal output.
package render

import (
	"strings"
	"time"

	"orby/config"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/lipgloss"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"
)

const DefaultWidth = 80

// Markdown renders content for a terminal of the given width. Plain URLs are
// left as text so terminal emulators can make them clickable.
func Markdown(content string, width int) string {
	if width < 20 {
		width = DefaultWidth
	}
	start := time.Now()

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	doc := p.Parse([]byte(content))
	rendered := strings.TrimRight(string(gomarkdown.Render(doc, r)), "\n")

	config.DebugLog.Debug("markdown rendered",
		zap.Int("chars", len(content)),
		zap.Duration("elapsed", time.Since(start)))
	return rendered
}

var (
	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	panelStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// Panel frames a rendered markdown reply under a title.
func Panel(title, content string, width int) string {
	if width < 20 {
		width = DefaultWidth
	}
	body := Markdown(content, width-4)
	return panelTitleStyle.Render(title) + "\n" + panelStyle.Width(width-2).Render(body)
}
