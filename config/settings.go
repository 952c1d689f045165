package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// LoadFileConfig decodes path over the defaults. A missing file is created
// from the commented template and the defaults are returned.
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	if !FileExists(path) {
		if err := CreateDefaultConfig(path); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		DebugLog.Warn("ignoring unknown config keys", zap.String("path", path), zap.Any("keys", undecoded))
	}

	return cfg, nil
}

func CreateDefaultConfig(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if FileExists(path) {
		return nil
	}

	if err := os.WriteFile(path, []byte(GenerateConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Describe renders the effective configuration as TOML for display.
func (c *Config) Describe() (string, error) {
	fc := FileConfig{
		Backend:               string(c.Backend),
		DataDirectory:         c.DataDirectory,
		RequestTimeoutSeconds: c.RequestTimeoutSeconds,
		Ollama:                OllamaConfig{Host: c.OllamaHost},
		LMStudio:              LMStudioConfig{BaseURL: c.LMStudioURL},
		Model: ModelConfig{
			Default:     c.DefaultModel,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
		},
		Tools: ToolsConfig{
			EnableOnlineSearch:      c.EnableOnlineSearch,
			EnableTerminalExecution: c.EnableTerminalExecution,
			EnableFileRead:          c.EnableFileRead,
			ConfirmDestructive:      c.ConfirmDestructive,
			SearchProvider:          c.SearchProvider,
			ShellTimeoutSeconds:     c.ShellTimeoutSeconds,
		},
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(fc); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.String(), nil
}
