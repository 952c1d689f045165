// Package ui is the full-screen chat interface. It runs the same
// tool-augmented request loop as the line-oriented chat.
package ui

import (
	"context"
	"strings"

	"orby/agent"
	"orby/config"
	appmodel "orby/model"
	"orby/provider"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type AppView struct {
	dataModel *appmodel.Model
	agent     *agent.Agent
	bridge    *Bridge
	keys      *config.KeyBindingsConfig

	viewport viewport.Model
	textarea textarea.Model

	width  int
	height int
	ready  bool

	// Streaming state; requestSeq identifies the request whose output is
	// being shown.
	currentResp    *strings.Builder
	requestSeq     int
	cancelRequest  context.CancelFunc
	loadingSpinner spinner.Model

	showHelp bool

	showModelSelector bool
	modelList         []string
	filteredModelList []string
	selectedModelIdx  int
	modelFilterMode   bool
	modelFilterInput  textinput.Model

	pendingConfirm *confirmRequestMsg

	// notices are status lines shown under the transcript; they are not
	// part of the saved session.
	notices []notice

	backendStatus string
	backendOK     bool

	flash string
}

func NewAppView(state *appmodel.Model, a *agent.Agent, bridge *Bridge, keys *config.KeyBindingsConfig) AppView {
	if keys == nil {
		keys = config.DefaultKeybindings()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask something. execute: <cmd>, search: <query> and file: <path> run tools first."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Enter sends; Alt+Enter inserts a newline.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.CharLimit = 64

	return AppView{
		dataModel:        state,
		agent:            a,
		bridge:           bridge,
		keys:             keys,
		viewport:         viewport.New(0, 0),
		textarea:         ta,
		currentResp:      &strings.Builder{},
		loadingSpinner:   sp,
		modelFilterInput: filter,
		backendStatus:    "connecting…",
	}
}

func (a AppView) Init() tea.Cmd {
	p := a.agent.Provider()
	return tea.Batch(
		textarea.Blink,
		a.bridge.Listen(),
		provider.PingProvider(p),
		provider.FetchModels(p),
	)
}

// Model returns the conversation state, for saving after the program exits.
func (a AppView) Model() *appmodel.Model {
	return a.dataModel
}

func (a *AppView) closeAllModals() {
	a.showHelp = false
	a.showModelSelector = false
	a.modelFilterMode = false
	if a.modelFilterInput.Focused() {
		a.modelFilterInput.Blur()
	}
}

func (a AppView) displayModelList() []string {
	if a.modelFilterMode && a.modelFilterInput.Value() != "" {
		return a.filteredModelList
	}
	return a.modelList
}
