package model

import (
	"orby/security"
)

// Stream messages carry the sequence number of the request they belong to,
// so output from a cancelled request is dropped.
type StreamChunkMsg struct {
	Seq   int
	Chunk string
}

type StreamDoneMsg struct {
	Seq          int
	FullResponse string
}

type StreamErrorMsg struct {
	Seq int
	Err error
}

// ToolActivityMsg reports a tool that ran before the request was sent.
type ToolActivityMsg struct {
	Tool     string
	Category string
	Display  string
	Success  bool
}

// ConfirmRequestMsg asks the UI to approve a command. The answer is sent
// on Reply exactly once.
type ConfirmRequestMsg struct {
	Request security.ConfirmationRequest
	Reply   chan<- bool
}

type MarkdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}

type ModelsListMsg struct {
	Models []string
	Err    error
}

type ClipboardCopiedMsg struct {
	Err error
}

type FlashTickMsg struct{}
