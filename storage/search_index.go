package storage

import (
	"strings"
	"time"
)

const previewRunes = 100

// SessionMessageMatch is one saved message that matched a search.
type SessionMessageMatch struct {
	SessionID    string
	SessionName  string
	MessageIndex int
	Role         string
	Preview      string
	Timestamp    time.Time
}

// SearchIndex searches saved transcripts. Sessions are read from disk on
// every search.
type SearchIndex struct {
	sessions *SessionStorage
}

func NewSearchIndex(sessions *SessionStorage) *SearchIndex {
	return &SearchIndex{sessions: sessions}
}

// SearchAllSessions returns user and assistant messages containing every
// word of query, ignoring case. Sessions are visited newest first.
// Unreadable sessions are skipped.
func (si *SearchIndex) SearchAllSessions(query string) ([]SessionMessageMatch, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []SessionMessageMatch{}, nil
	}

	metas, err := si.sessions.List()
	if err != nil {
		return nil, err
	}

	var out []SessionMessageMatch
	for _, meta := range metas {
		session, err := si.sessions.Load(meta.ID)
		if err != nil {
			continue
		}
		for i, msg := range session.Messages {
			if msg.Role != "user" && msg.Role != "assistant" {
				continue
			}
			if !containsAll(strings.ToLower(msg.Content), terms) {
				continue
			}
			out = append(out, SessionMessageMatch{
				SessionID:    session.ID,
				SessionName:  session.Name,
				MessageIndex: i,
				Role:         msg.Role,
				Preview:      preview(msg.Content, previewRunes),
				Timestamp:    msg.Timestamp,
			})
		}
	}
	return out, nil
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// preview collapses whitespace and cuts s to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
