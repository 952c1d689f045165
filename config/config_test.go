package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromCreatesTemplate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORBY_DATA_DIR", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "orby", "config.toml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if !FileExists(path) {
		t.Fatal("expected config template to be written")
	}
	if cfg.Backend != BackendOllama {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendOllama)
	}
	if cfg.DefaultModel != DefaultModelName {
		t.Errorf("DefaultModel = %q, want %q", cfg.DefaultModel, DefaultModelName)
	}
	if cfg.Temperature != DefaultTemperature {
		t.Errorf("Temperature = %v, want %v", cfg.Temperature, DefaultTemperature)
	}
	if !cfg.EnableOnlineSearch || !cfg.EnableTerminalExecution || !cfg.EnableFileRead {
		t.Error("tools should be enabled by default")
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Error("expected built-in system prompt")
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}

	// The written template must decode back to the defaults.
	again, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.LMStudioURL != DefaultLMStudioURL || again.OllamaHost != DefaultOllamaHost {
		t.Errorf("template drifted from defaults: %+v", again)
	}
}

func TestLoadFromFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `backend = "lmstudio"
data_directory = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"

[lmstudio]
base_url = "http://127.0.0.1:9999/v1"

[model]
default = "qwen2.5-coder"
temperature = 0.2
max_tokens = 512

[tools]
enable_online_search = false
enable_terminal_execution = true
enable_file_read = false
search_provider = "simulated"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Backend != BackendLMStudio {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.BaseURL() != "http://127.0.0.1:9999/v1" {
		t.Errorf("BaseURL() = %q", cfg.BaseURL())
	}
	if cfg.MaxTokens != 512 || cfg.Temperature != 0.2 {
		t.Errorf("model settings not decoded: %+v", cfg)
	}
	if cfg.EnableOnlineSearch {
		t.Error("EnableOnlineSearch should be false")
	}
	if cfg.EnableFileRead {
		t.Error("EnableFileRead should be false")
	}
	if cfg.SearchProvider != SearchProviderSimulated {
		t.Errorf("SearchProvider = %q", cfg.SearchProvider)
	}
	// Keys absent from the file keep their defaults.
	if cfg.OllamaHost != DefaultOllamaHost {
		t.Errorf("OllamaHost = %q, want default", cfg.OllamaHost)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORBY_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("ORBY_BACKEND", "lmstudio")
	t.Setenv("ORBY_MODEL", "mistral")
	t.Setenv("ORBY_LMSTUDIO_URL", "http://lm:1234/v1")

	cfg, err := LoadFrom(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Backend != BackendLMStudio {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.DefaultModel != "mistral" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.BaseURL() != "http://lm:1234/v1" {
		t.Errorf("BaseURL() = %q", cfg.BaseURL())
	}
}

func TestLoadFromRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORBY_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("ORBY_BACKEND", "vllm")

	_, err := LoadFrom(filepath.Join(dir, "config.toml"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "lmstudio", mutate: func(c *Config) { c.Backend = BackendLMStudio }},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "llamacpp" }, wantErr: true},
		{name: "temperature too high", mutate: func(c *Config) { c.Temperature = 1.5 }, wantErr: true},
		{name: "negative temperature", mutate: func(c *Config) { c.Temperature = -0.1 }, wantErr: true},
		{name: "temperature bounds", mutate: func(c *Config) { c.Temperature = 1 }},
		{name: "negative max tokens", mutate: func(c *Config) { c.MaxTokens = -1 }, wantErr: true},
		{name: "unknown search provider", mutate: func(c *Config) { c.SearchProvider = "bing" }, wantErr: true},
		{name: "empty model", mutate: func(c *Config) { c.DefaultModel = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTimeouts(t *testing.T) {
	cfg := Default()
	if cfg.ShellTimeout() != 30*time.Second {
		t.Errorf("ShellTimeout() = %v", cfg.ShellTimeout())
	}
	cfg.ShellTimeoutSeconds = 0
	if cfg.ShellTimeout() != DefaultShellTimeout {
		t.Errorf("ShellTimeout() fallback = %v", cfg.ShellTimeout())
	}
	cfg.RequestTimeoutSeconds = 0
	if cfg.RequestTimeout() != 0 {
		t.Errorf("RequestTimeout() = %v, want 0", cfg.RequestTimeout())
	}
}

func TestWithModelCopies(t *testing.T) {
	cfg := Default()
	other := cfg.WithModel("phi3")
	if other.DefaultModel != "phi3" {
		t.Errorf("DefaultModel = %q", other.DefaultModel)
	}
	if cfg.DefaultModel != DefaultModelName {
		t.Error("WithModel mutated the receiver")
	}
}

func TestDescribe(t *testing.T) {
	out, err := Default().Describe()
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	for _, want := range []string{`backend = "ollama"`, `default = "llama3.2"`, "[tools]"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe() missing %q:\n%s", want, out)
		}
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := ExpandPath("~/x/y"); got != filepath.Clean("/home/tester/x/y") {
		t.Errorf("ExpandPath(~/x/y) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}
