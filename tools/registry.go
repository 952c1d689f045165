package tools

import (
	"fmt"
	"sort"
	"sync"

	"orby/config"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Schema is the name and description of a registered tool.
type Schema struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry maps tool names to tools. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefaultRegistry registers the built-in tools configured by cfg.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.MustRegister(NewShellTool(cfg.ShellTimeout()))
	r.MustRegister(NewWebSearchTool(NewSearcher(cfg.SearchProvider)))
	r.MustRegister(NewReadFileTool())
	return r
}

// Register adds tool. A second tool with the same name is rejected.
func (r *Registry) Register(tool Tool) error {
	if tool == nil || tool.Name() == "" {
		return fmt.Errorf("%w: tool has no name", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name())
	}
	r.tools[tool.Name()] = tool

	config.DebugLog.Debug("registered tool", zap.String("name", tool.Name()))
	return nil
}

func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool: %v", err))
	}
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListSchemas returns every tool's name and description, sorted by name.
func (r *Registry) ListSchemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]Schema, 0, len(r.tools))
	for _, name := range r.names() {
		schemas = append(schemas, Schema{Name: name, Description: r.tools[name].Description()})
	}
	return schemas
}

// MCPTools exports the registered tools as MCP tool definitions, sorted by
// name, for models that select tools themselves.
func (r *Registry) MCPTools() []mcptypes.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcptypes.Tool, 0, len(r.tools))
	for _, name := range r.names() {
		t := r.tools[name]
		out = append(out, mcptypes.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return out
}
