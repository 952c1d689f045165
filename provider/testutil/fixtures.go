package testutil

import "orby/model"

// TestMessages is a short tool-augmented exchange: a system prompt, a
// prompt that triggered the shell tool, the reply and a follow-up.
func TestMessages() []model.Message {
	return []model.Message{
		model.SystemMessage("You are Orby."),
		model.UserMessage("execute: ls ~/projects"),
		model.AssistantMessage("You have two projects: orby and notes."),
		model.UserMessage("Which one changed last?"),
	}
}

// SingleUserMessage wraps content as the only message of a request.
func SingleUserMessage(content string) []model.Message {
	return []model.Message{model.UserMessage(content)}
}
