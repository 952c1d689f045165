package cmd

import (
	"errors"
	"fmt"
	"strings"

	"orby/agent"
	"orby/config"
	"orby/repl"
	"orby/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Chat in the terminal, or answer a single prompt",
	Long: `Without a prompt, chat starts an interactive loop. With a prompt, it
answers once and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Start the full-screen chat interface",
	Args:  cobra.NoArgs,
	RunE:  runUI,
}

func init() {
	rootCmd.AddCommand(chatCmd, uiCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	term := repl.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
	ag := a.newAgent(agent.WithConfirmer(term.Confirm), agent.WithObserver(term.ToolActivity))
	r := repl.New(ag, a.newState(), term, repl.WithStreaming(!flagNoStream))

	if len(args) == 0 {
		return r.Run(cmd.Context())
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("empty prompt")
	}
	return r.Ask(cmd.Context(), prompt)
}

func runUI(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	keys, err := config.LoadKeybindings(a.cfg.DataDir())
	if err != nil {
		config.DebugLog.Warn("using default keybindings", zap.Error(err))
		keys = config.DefaultKeybindings()
	}

	bridge := ui.NewBridge()
	ag := a.newAgent(agent.WithConfirmer(bridge.Confirm), agent.WithObserver(bridge.ToolActivity))
	state := a.newState()

	p := tea.NewProgram(
		ui.NewAppView(state, ag, bridge, keys),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	final, err := p.Run()
	if view, ok := final.(ui.AppView); ok {
		if saveErr := view.Model().SaveSession(); saveErr != nil {
			config.DebugLog.Warn("failed to save session", zap.Error(saveErr))
		}
	}
	if err != nil {
		return fmt.Errorf("error running orby ui: %w", err)
	}
	return nil
}
