package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"orby/agent"
	"orby/security"
	"orby/tools"
)

// Terminal is the line-oriented console shared by the chat loop and the
// confirmation prompt, so both read from one buffered stdin.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) Out() io.Writer {
	return t.out
}

// Printf writes to the terminal. Writes are serialized with tool activity
// lines, which may come from other goroutines.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// ReadLine prints prompt and returns the next line without its newline.
// A final line without a newline is returned before io.EOF.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readLine(prompt)
}

func (t *Terminal) readLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks the user to approve a risky command. Anything but y or yes,
// including end of input, declines. The whole prompt is written under the
// terminal lock so concurrent tool lines cannot split it.
func (t *Terminal) Confirm(ctx context.Context, req security.ConfirmationRequest) bool {
	if ctx.Err() != nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n⚠️  %s\n%s\n", req.Title, req.Message)
	answer, err := t.readLine("Run it? [y/N] ")
	if err != nil {
		fmt.Fprintln(t.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		fmt.Fprintln(t.out, "⊘ Skipped")
		return false
	}
}

// ToolActivity prints a one-line summary of a tool run. It matches
// agent.Observer.
func (t *Terminal) ToolActivity(category agent.Category, tool string, res tools.Result) {
	mark := "✓"
	if !res.Success {
		mark = "✗"
	}

	summary := strings.TrimSpace(res.ReturnDisplay)
	if i := strings.IndexByte(summary, '\n'); i >= 0 {
		summary = summary[:i] + " …"
	}
	if runes := []rune(summary); len(runes) > 80 {
		summary = string(runes[:80]) + "…"
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s (%s): %s\n", mark, tool, category, summary)
}
