package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"orby/model"
	"orby/tools"
)

// Context maps a tool category to the result its tool produced for the
// current request. It is built per request and never stored.
type Context map[Category]tools.Result

// JSON renders the context as indented JSON with sorted keys.
func (c Context) JSON() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[Category]tools.Result(c))
	}
	return string(data)
}

const instructionsHeader = "\n\n[TOOL USAGE INSTRUCTIONS]\n" +
	"You have access to the following tools that can be used when appropriate:\n"

const terminalInstructions = "TERMINAL EXECUTION: You can execute commands to verify code, run tests, or gather system information.\n" +
	"Usage: Prefix your response with TERMINAL: followed by the command to execute.\n"

const searchInstructions = "WEB SEARCH: You can search the web for current information or topics you're uncertain about.\n" +
	"Usage: Prefix your response with SEARCH: followed by your search query.\n"

const fileInstructions = "FILE READ: The contents of files the user referenced are included in the additional context.\n" +
	"Usage: If the content is truncated, ask the user to send file: followed by the path to see more.\n"

// ToolInstructions returns the text appended to the system prompt for the
// categories present in c, or "" when c is empty.
func ToolInstructions(c Context) string {
	if len(c) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(instructionsHeader)
	if _, ok := c[CategoryTerminal]; ok {
		b.WriteString(terminalInstructions)
	}
	if _, ok := c[CategorySearch]; ok {
		b.WriteString(searchInstructions)
	}
	if _, ok := c[CategoryFile]; ok {
		b.WriteString(fileInstructions)
	}
	return b.String()
}

// Assemble merges tool output into a conversation. It returns a new slice
// and never modifies messages.
//
// With a non-empty context the result is
//
//	[system(+instructions), "Additional context:\n{json}" as user, rest...]
//
// where the instructions are appended to the first system message, or a new
// system message built from basePrompt is inserted at the front.
func Assemble(messages []model.Message, c Context, basePrompt string) []model.Message {
	out := model.CloneMessages(messages)
	if len(c) == 0 {
		return out
	}

	instructions := ToolInstructions(c)
	sysIdx := -1
	for i, msg := range out {
		if msg.Role == model.RoleSystem {
			sysIdx = i
			break
		}
	}
	if sysIdx >= 0 {
		out[sysIdx].Content += instructions
	} else {
		out = append([]model.Message{model.SystemMessage(basePrompt + instructions)}, out...)
		sysIdx = 0
	}

	contextMsg := model.Message{
		Role:    model.RoleUser,
		Content: "Additional context:\n" + c.JSON(),
	}

	at := sysIdx + 1
	out = append(out, model.Message{})
	copy(out[at+1:], out[at:])
	out[at] = contextMsg
	return out
}
