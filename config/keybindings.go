package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

const (
	keybindingsFile = "keybindings.toml"

	defaultPrimary   = "alt"
	defaultSecondary = "alt+shift"
)

var ErrInvalidKeybindings = errors.New("invalid keybindings")

// KeyBindingsConfig is the full-screen UI's key map: two modifier slots
// plus optional per-action overrides.
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary   string `toml:"primary"`
	Secondary string `toml:"secondary"`
}

type slot int

const (
	bare slot = iota
	primary
	secondary
)

type binding struct {
	slot slot
	key  string
	desc string
}

var bindings = map[string]binding{
	"help":               {primary, "h", "toggle help"},
	"model_selector":     {primary, "m", "open the model selector"},
	"clear_conversation": {primary, "n", "save and start a new conversation"},
	"quit":               {primary, "q", "save and quit"},
	"yank_last_response": {primary, "y", "copy the last reply"},
	"yank_conversation":  {primary, "c", "copy the whole conversation"},

	"half_page_down":   {primary, "j", ""},
	"half_page_up":     {primary, "k", ""},
	"page_down":        {secondary, "j", ""},
	"page_up":          {secondary, "k", ""},
	"scroll_to_top":    {primary, "g", ""},
	"scroll_to_bottom": {secondary, "g", ""},

	"model_selector_down":   {bare, "down", ""},
	"model_selector_up":     {bare, "up", ""},
	"close_model_selector":  {primary, "m", ""},
	"model_selector_filter": {bare, "/", ""},

	"confirm_yes": {bare, "y", "run a command awaiting confirmation"},
	"confirm_no":  {bare, "n", "skip a command awaiting confirmation"},
}

// Actions returns every bindable action, sorted.
func Actions() []string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: defaultPrimary, Secondary: defaultSecondary},
	}
}

// LoadKeybindings reads <dataDir>/keybindings.toml, writing the commented
// template on first use.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	path := filepath.Join(dataDir, keybindingsFile)
	kb := DefaultKeybindings()

	if !FileExists(path) {
		if err := EnsureDir(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(keybindingsTemplate()), 0600); err != nil {
			return nil, fmt.Errorf("failed to write keybindings: %w", err)
		}
		return kb, nil
	}

	if _, err := toml.DecodeFile(path, kb); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}
	if err := kb.Validate(); err != nil {
		return nil, err
	}
	if strings.Contains(kb.Primary()+kb.Secondary(), "ctrl") {
		DebugLog.Info("ctrl modifiers may shadow terminal shortcuts", zap.String("path", path))
	}
	return kb, nil
}

func keybindingsTemplate() string {
	var b strings.Builder
	b.WriteString(`# Orby keybindings for the full-screen UI (orby ui)

[modifiers]
primary = "alt"          # alt, ctrl, meta or super
secondary = "alt+shift"

# tmux users may prefer:
#   primary = "ctrl"
#   secondary = "ctrl+shift"

[actions]
# Override single actions, e.g.
#   quit = "ctrl+q"
#
`)
	for _, name := range Actions() {
		if d := bindings[name].desc; d != "" {
			fmt.Fprintf(&b, "# %-20s %s\n", name, d)
		}
	}
	return b.String()
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return defaultPrimary
	}
	return kb.Modifiers.Primary
}

func (kb *KeyBindingsConfig) Secondary() string {
	if kb.Modifiers.Secondary == "" {
		return defaultSecondary
	}
	return kb.Modifiers.Secondary
}

// Validate rejects modifiers that would swallow ordinary typing.
func (kb *KeyBindingsConfig) Validate() error {
	for _, mod := range []string{kb.Primary(), kb.Secondary()} {
		if mod == "shift" {
			return fmt.Errorf("%w: shift alone conflicts with typing", ErrInvalidKeybindings)
		}
	}
	for action := range kb.Actions {
		if _, ok := bindings[action]; !ok {
			return fmt.Errorf("%w: unknown action %q", ErrInvalidKeybindings, action)
		}
	}
	return nil
}

// GetActionKey returns the key string bubbletea reports for action, or ""
// for an unknown action. A shifted letter is reported in upper case, so
// "alt+shift" + "j" yields "alt+J".
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if override := kb.Actions[action]; override != "" {
		return override
	}

	b, ok := bindings[action]
	if !ok {
		return ""
	}
	switch b.slot {
	case primary:
		return kb.Primary() + "+" + b.key
	case secondary:
		return withModifier(kb.Secondary(), b.key)
	default:
		return b.key
	}
}

func withModifier(mod, key string) string {
	isLetter := len(key) == 1 && key[0] >= 'a' && key[0] <= 'z'
	if !isLetter {
		return mod + "+" + key
	}

	var kept []string
	shifted := false
	for _, part := range strings.Split(mod, "+") {
		if strings.EqualFold(part, "shift") {
			shifted = true
			continue
		}
		kept = append(kept, part)
	}
	if shifted {
		key = strings.ToUpper(key)
	}
	if len(kept) == 0 {
		return key
	}
	return strings.Join(kept, "+") + "+" + key
}

// DisplayActionKey formats an action's key for help text: "alt+J" becomes
// "Alt+Shift+J".
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "+")
	hasShift := false
	for _, p := range parts {
		if strings.EqualFold(p, "shift") {
			hasShift = true
		}
	}

	out := make([]string, 0, len(parts)+1)
	for i, p := range parts {
		if p == "" {
			continue
		}
		if len(p) == 1 && p[0] >= 'A' && p[0] <= 'Z' && i > 0 && !hasShift {
			out = append(out, "Shift")
		}
		out = append(out, strings.ToUpper(p[:1])+p[1:])
	}
	return strings.Join(out, "+")
}
