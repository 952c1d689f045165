package model

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in the conversation
type Message struct {
	Role      string
	Content   string    // Raw content from the backend
	Rendered  string    // Cached rendered markdown
	Timestamp time.Time // Zero for synthesized messages
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// CloneMessages returns a copy of msgs that shares no backing array with it.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// FirstUserMessage returns the index of the first user message, or -1.
func FirstUserMessage(msgs []Message) int {
	for i, m := range msgs {
		if m.Role == RoleUser {
			return i
		}
	}
	return -1
}
