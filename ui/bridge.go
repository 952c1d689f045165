package ui

import (
	"context"
	"strings"

	"orby/agent"
	appmodel "orby/model"
	"orby/security"
	"orby/tools"

	tea "github.com/charmbracelet/bubbletea"
)

// Bridge carries events from request goroutines (tool activity, confirmation
// requests, stream fragments) into the bubbletea update loop.
type Bridge struct {
	events chan tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{events: make(chan tea.Msg, 64)}
}

// Listen returns a command that delivers the next event. Update re-arms it
// after every event.
func (b *Bridge) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}

func (b *Bridge) send(ctx context.Context, msg tea.Msg) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case b.events <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Confirm shows the confirmation modal and blocks until the user answers or
// ctx ends. It matches agent.Confirmer.
func (b *Bridge) Confirm(ctx context.Context, req security.ConfirmationRequest) bool {
	reply := make(chan bool, 1)
	if !b.send(ctx, appmodel.ConfirmRequestMsg{Request: req, Reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

// ToolActivity matches agent.Observer.
func (b *Bridge) ToolActivity(category agent.Category, tool string, res tools.Result) {
	display := strings.TrimSpace(res.ReturnDisplay)
	if i := strings.IndexByte(display, '\n'); i >= 0 {
		display = display[:i] + " …"
	}
	b.events <- appmodel.ToolActivityMsg{
		Tool:     tool,
		Category: string(category),
		Display:  display,
		Success:  res.Success,
	}
}

// runRequest gathers tools and streams the reply for one prompt, emitting
// chunk messages followed by exactly one done or error message.
func (b *Bridge) runRequest(ctx context.Context, a *agent.Agent, seq int, messages []appmodel.Message, modelName string) {
	stream := a.Stream(ctx, messages, modelName)
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		full.WriteString(chunk)
		if !b.send(ctx, appmodel.StreamChunkMsg{Seq: seq, Chunk: chunk}) {
			break
		}
	}

	if err := stream.Err(); err != nil {
		b.events <- appmodel.StreamErrorMsg{Seq: seq, Err: err}
		return
	}
	if err := ctx.Err(); err != nil {
		b.events <- appmodel.StreamErrorMsg{Seq: seq, Err: err}
		return
	}
	b.events <- appmodel.StreamDoneMsg{Seq: seq, FullResponse: full.String()}
}
