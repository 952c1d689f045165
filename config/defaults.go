package config

import "time"

const (
	DefaultModelName      = "llama3.2"
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultLMStudioURL    = "http://localhost:1234/v1"
	DefaultLMStudioAPIKey = "lm-studio"
	DefaultTemperature    = 0.7
	DefaultShellTimeout   = 30 * time.Second
)

const DefaultSystemPrompt = `You are Orby, a coding assistant that runs in the terminal against a local language model.

You help with writing, debugging, refactoring and explaining code, with algorithms and system design, and with programming concepts.

Guidelines:
- Be concise but complete.
- Include code examples when they help.
- Prefer practical, actionable advice.
- Say so when you are unsure.

When tool results are attached to the conversation as additional context, use them in your answer and mention where the information came from.`

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Backend:               string(BackendOllama),
		DataDirectory:         "~/.local/share/orby",
		RequestTimeoutSeconds: 300,
		Ollama: OllamaConfig{
			Host: DefaultOllamaHost,
		},
		LMStudio: LMStudioConfig{
			BaseURL: DefaultLMStudioURL,
			APIKey:  DefaultLMStudioAPIKey,
		},
		Model: ModelConfig{
			Default:     DefaultModelName,
			Temperature: DefaultTemperature,
		},
		Tools: ToolsConfig{
			EnableOnlineSearch:      true,
			EnableTerminalExecution: true,
			EnableFileRead:          true,
			ConfirmDestructive:      true,
			SearchProvider:          SearchProviderDuckDuckGo,
			ShellTimeoutSeconds:     int(DefaultShellTimeout / time.Second),
		},
	}
}

// Default returns the built-in configuration without touching the filesystem.
func Default() *Config {
	cfg := fromFile(DefaultFileConfig())
	cfg.SystemPrompt = DefaultSystemPrompt
	return cfg
}

func GenerateConfigTemplate() string {
	return `# Orby Configuration
# Location: ~/.config/orby/config.toml
# This file uses TOML format: https://toml.io

# Completion backend: "ollama" or "lmstudio"
backend = "ollama"

# Directory where sessions, the tool log and debug.log are stored
data_directory = "~/.local/share/orby"

# Overall deadline for a single request in seconds (0 disables it)
request_timeout_seconds = 300

[ollama]
# Ollama server URL (a trailing /api is accepted)
host = "http://localhost:11434"

[lmstudio]
# OpenAI-compatible endpoint
base_url = "http://localhost:1234/v1"
api_key = "lm-studio"

[model]
default = "llama3.2"
temperature = 0.7

# Maximum tokens to generate (0 leaves it to the backend)
max_tokens = 0

# Leave empty to use the built-in prompt
# system_prompt = "You are a helpful coding assistant."

[tools]
enable_online_search = true
enable_terminal_execution = true

# "file: <path>" in a prompt attaches the file
enable_file_read = true

# Ask before running commands that look destructive
confirm_destructive = true

# "duckduckgo" or "simulated"
search_provider = "duckduckgo"

shell_timeout_seconds = 30
`
}
