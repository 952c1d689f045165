package provider

import (
	"context"
	"fmt"

	"orby/config"
	"orby/model"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// PingProviderMsg is sent when a provider ping completes
type PingProviderMsg struct {
	Backend string
	Valid   bool
	Err     error
}

// PingProvider checks that the backend is reachable. Used by the full-screen
// UI at startup to fill the status bar.
func PingProvider(p model.Provider) tea.Cmd {
	return func() tea.Msg {
		if err := p.Ping(context.Background()); err != nil {
			return PingProviderMsg{
				Backend: p.Name(),
				Valid:   false,
				Err:     fmt.Errorf("connection failed: %w", err),
			}
		}

		config.DebugLog.Debug("provider ping successful", zap.String("backend", p.Name()))

		return PingProviderMsg{
			Backend: p.Name(),
			Valid:   true,
		}
	}
}

// FetchModels lists the backend's models. ListModels never fails, so Err is
// always nil.
func FetchModels(p model.Provider) tea.Cmd {
	return func() tea.Msg {
		models := p.ListModels(context.Background())

		config.DebugLog.Debug("fetched models",
			zap.String("backend", p.Name()),
			zap.Int("count", len(models)))

		return model.ModelsListMsg{Models: models}
	}
}
