// Package cmd wires the orby command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orby/agent"
	"orby/config"
	"orby/model"
	"orby/provider"
	"orby/storage"
	"orby/tools"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version = "dev"

	flagModel    string
	flagBackend  string
	flagNoStream bool
	flagConfig   string
)

// newProvider builds the backend client. Tests replace it.
var newProvider = provider.FromConfig

var rootCmd = &cobra.Command{
	Use:   "orby",
	Short: "Tool-augmented chat with local LLMs",
	Long: `orby chats with a local model served by Ollama or LM Studio.

Prompts can pull in tool output before they are sent:
  execute: <cmd>   run a shell command
  search: <query>  search the web
  file: <path>     read a file`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, nil)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagModel, "model", "m", "", "model to use instead of the configured default")
	pf.StringVar(&flagBackend, "backend", "", "backend to use: ollama or lmstudio")
	pf.BoolVar(&flagNoStream, "no-stream", false, "wait for the full reply and render it as markdown")
	pf.StringVar(&flagConfig, "config", "", "config file (default $ORBY_CONFIG or ~/.config/orby/config.toml)")
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds what every command needs once the config is loaded.
type app struct {
	cfg      *config.Config
	provider model.Provider
	registry *tools.Registry
	sessions *storage.SessionStorage
	toolLog  *storage.ToolLog

	flushLog func()
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(config.ExpandPath(flagConfig))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flagBackend != "" {
		cp := *cfg
		cp.Backend = config.Backend(flagBackend)
		cfg = &cp
	}
	if flagModel != "" {
		cfg = cfg.WithModel(flagModel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, flushLog: config.InitDebugLog(cfg.DataDir())}

	a.provider, err = newProvider(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry = tools.NewDefaultRegistry(cfg)

	a.sessions, err = storage.NewSessionStorage(cfg.DataDir())
	if err != nil {
		a.Close()
		return nil, err
	}

	// History is optional; chatting works without it.
	a.toolLog, err = storage.NewToolLog(cfg.DataDir())
	if err != nil {
		config.DebugLog.Warn("tool log unavailable", zap.Error(err))
		a.toolLog = nil
	}

	return a, nil
}

func (a *app) newAgent(opts ...agent.Option) *agent.Agent {
	if a.toolLog != nil {
		opts = append(opts, agent.WithRecorder(a.toolLog))
	}
	if wd, err := os.Getwd(); err == nil {
		opts = append(opts, agent.WithBaseDir(wd))
	}
	return agent.New(a.cfg, a.provider, a.registry, opts...)
}

func (a *app) newState() *model.Model {
	return model.NewModel(a.cfg, a.sessions, Version)
}

func (a *app) Close() {
	if a.toolLog != nil {
		if err := a.toolLog.Close(); err != nil {
			config.DebugLog.Warn("failed to close tool log", zap.Error(err))
		}
	}
	a.flushLog()
}
