package model

import (
	"time"

	"orby/config"
	"orby/storage"

	"go.uber.org/zap"
)

// Model holds the conversation state shared by the REPL and the full-screen UI.
type Model struct {
	Config   *config.Config
	Sessions *storage.SessionStorage

	Messages       []Message
	CurrentSession *storage.Session

	// ModelName is the model requests are sent to.
	ModelName string

	Streaming    bool
	SessionDirty bool
	Quitting     bool

	Version string
}

// NewModel creates a new Model. sessions may be nil, in which case
// conversations are not persisted.
func NewModel(cfg *config.Config, sessions *storage.SessionStorage, version string) *Model {
	return &Model{
		Config:    cfg,
		Sessions:  sessions,
		ModelName: cfg.DefaultModel,
		Version:   version,
	}
}

// SetModelName switches the model for subsequent requests.
func (m *Model) SetModelName(name string) {
	if name == "" {
		return
	}
	m.ModelName = name
	if m.CurrentSession != nil {
		m.CurrentSession.Model = name
	}
}

func (m *Model) AddUserMessage(content string) {
	m.Messages = append(m.Messages, UserMessage(content))
	m.SessionDirty = true
}

func (m *Model) AddAssistantMessage(content string) {
	m.Messages = append(m.Messages, AssistantMessage(content))
	m.SessionDirty = true
}

// LastAssistantMessage returns the most recent assistant reply.
func (m *Model) LastAssistantMessage() (Message, bool) {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Role == RoleAssistant {
			return m.Messages[i], true
		}
	}
	return Message{}, false
}

// ClearConversation drops the transcript and detaches the current session.
func (m *Model) ClearConversation() {
	m.Messages = nil
	m.CurrentSession = nil
	m.SessionDirty = false
}

// BuildRequestMessages returns the messages for the next request. Each
// prompt is sent on its own as [system, user]; the transcript is kept for
// display and session storage only, so tool triggers in earlier prompts are
// never re-run.
func (m *Model) BuildRequestMessages() []Message {
	out := []Message{SystemMessage(m.Config.SystemPrompt)}
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Role == RoleUser {
			return append(out, Message{Role: RoleUser, Content: m.Messages[i].Content})
		}
	}
	return out
}

// SaveSession writes the transcript to session storage if it changed.
func (m *Model) SaveSession() error {
	if m.Sessions == nil || !m.SessionDirty || len(m.Messages) == 0 {
		return nil
	}

	if m.CurrentSession == nil {
		first := ""
		if i := FirstUserMessage(m.Messages); i >= 0 {
			first = m.Messages[i].Content
		}
		m.CurrentSession = &storage.Session{
			Name:      storage.GenerateSessionName(first),
			Backend:   string(m.Config.Backend),
			CreatedAt: time.Now(),
		}
	}

	m.CurrentSession.Model = m.ModelName
	m.CurrentSession.Messages = make([]storage.Message, 0, len(m.Messages))
	for _, msg := range m.Messages {
		m.CurrentSession.Messages = append(m.CurrentSession.Messages, storage.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}

	if err := m.Sessions.Save(m.CurrentSession); err != nil {
		return err
	}

	config.DebugLog.Debug("session saved",
		zap.String("id", m.CurrentSession.ID),
		zap.Int("messages", len(m.Messages)))
	m.SessionDirty = false
	return nil
}

// LoadSession replaces the transcript with a saved session.
func (m *Model) LoadSession(id string) error {
	if m.Sessions == nil {
		return nil
	}
	session, err := m.Sessions.Load(id)
	if err != nil {
		return err
	}

	m.Messages = m.Messages[:0]
	for _, msg := range session.Messages {
		m.Messages = append(m.Messages, Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	m.CurrentSession = session
	if session.Model != "" {
		m.ModelName = session.Model
	}
	m.SessionDirty = false
	return nil
}
