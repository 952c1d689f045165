package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Backend names the completion protocol orby talks to.
type Backend string

const (
	BackendOllama   Backend = "ollama"
	BackendLMStudio Backend = "lmstudio"
)

const (
	SearchProviderDuckDuckGo = "duckduckgo"
	SearchProviderSimulated  = "simulated"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type OllamaConfig struct {
	Host string `toml:"host"`
}

type LMStudioConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key,omitempty"`
}

type ModelConfig struct {
	Default      string  `toml:"default"`
	Temperature  float64 `toml:"temperature"`
	MaxTokens    int     `toml:"max_tokens"`
	SystemPrompt string  `toml:"system_prompt,omitempty"`
}

type ToolsConfig struct {
	EnableOnlineSearch      bool   `toml:"enable_online_search"`
	EnableTerminalExecution bool   `toml:"enable_terminal_execution"`
	EnableFileRead          bool   `toml:"enable_file_read"`
	ConfirmDestructive      bool   `toml:"confirm_destructive"`
	SearchProvider          string `toml:"search_provider"`
	ShellTimeoutSeconds     int    `toml:"shell_timeout_seconds"`
}

// FileConfig mirrors the on-disk config.toml layout.
type FileConfig struct {
	Backend               string         `toml:"backend"`
	DataDirectory         string         `toml:"data_directory"`
	RequestTimeoutSeconds int            `toml:"request_timeout_seconds"`
	Ollama                OllamaConfig   `toml:"ollama"`
	LMStudio              LMStudioConfig `toml:"lmstudio"`
	Model                 ModelConfig    `toml:"model"`
	Tools                 ToolsConfig    `toml:"tools"`
}

// Config is the resolved runtime configuration. It is built once at startup
// and passed by pointer to constructors; nothing mutates it afterwards.
type Config struct {
	Backend                 Backend
	DataDirectory           string
	OllamaHost              string
	LMStudioURL             string
	LMStudioAPIKey          string
	DefaultModel            string
	Temperature             float64
	MaxTokens               int
	SystemPrompt            string
	EnableOnlineSearch      bool
	EnableTerminalExecution bool
	EnableFileRead          bool
	ConfirmDestructive      bool
	SearchProvider          string
	RequestTimeoutSeconds   int
	ShellTimeoutSeconds     int

	// Path is the file the config was loaded from, empty when built in code.
	Path string
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// BaseURL returns the endpoint of the active backend.
func (c *Config) BaseURL() string {
	if c.Backend == BackendLMStudio {
		return c.LMStudioURL
	}
	return c.OllamaHost
}

func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) ShellTimeout() time.Duration {
	if c.ShellTimeoutSeconds <= 0 {
		return DefaultShellTimeout
	}
	return time.Duration(c.ShellTimeoutSeconds) * time.Second
}

// WithModel returns a copy of the config using model as the default.
func (c *Config) WithModel(model string) *Config {
	cp := *c
	cp.DefaultModel = model
	return &cp
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama, BackendLMStudio:
	default:
		return fmt.Errorf("%w: unsupported backend %q (want %q or %q)", ErrInvalidConfig, c.Backend, BackendOllama, BackendLMStudio)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0, 1]", ErrInvalidConfig, c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must not be negative", ErrInvalidConfig)
	}
	switch c.SearchProvider {
	case SearchProviderDuckDuckGo, SearchProviderSimulated:
	default:
		return fmt.Errorf("%w: unknown search provider %q", ErrInvalidConfig, c.SearchProvider)
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("%w: default model is empty", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if backend := os.Getenv("ORBY_BACKEND"); backend != "" {
		c.Backend = Backend(backend)
	}
	if model := os.Getenv("ORBY_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if host := os.Getenv("ORBY_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if u := os.Getenv("ORBY_LMSTUDIO_URL"); u != "" {
		c.LMStudioURL = u
	}
	if dataDir := os.Getenv("ORBY_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func fromFile(fc *FileConfig) *Config {
	return &Config{
		Backend:                 Backend(fc.Backend),
		DataDirectory:           fc.DataDirectory,
		OllamaHost:              fc.Ollama.Host,
		LMStudioURL:             fc.LMStudio.BaseURL,
		LMStudioAPIKey:          fc.LMStudio.APIKey,
		DefaultModel:            fc.Model.Default,
		Temperature:             fc.Model.Temperature,
		MaxTokens:               fc.Model.MaxTokens,
		SystemPrompt:            fc.Model.SystemPrompt,
		EnableOnlineSearch:      fc.Tools.EnableOnlineSearch,
		EnableTerminalExecution: fc.Tools.EnableTerminalExecution,
		EnableFileRead:          fc.Tools.EnableFileRead,
		ConfirmDestructive:      fc.Tools.ConfirmDestructive,
		SearchProvider:          fc.Tools.SearchProvider,
		RequestTimeoutSeconds:   fc.RequestTimeoutSeconds,
		ShellTimeoutSeconds:     fc.Tools.ShellTimeoutSeconds,
	}
}

// Load reads the config file (creating it from the template on first run),
// applies ORBY_* environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFrom(GetConfigFilePath())
}

func LoadFrom(path string) (*Config, error) {
	fc, err := LoadFileConfig(path)
	if err != nil {
		return nil, err
	}

	cfg := fromFile(fc)
	cfg.Path = path
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
