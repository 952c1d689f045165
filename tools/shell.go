package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"orby/config"
	"orby/security"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const ShellToolName = "run_shell_command"

// ShellTool runs a command through the platform shell.
type ShellTool struct {
	// Timeout bounds a single command; zero means config.DefaultShellTimeout.
	Timeout time.Duration
}

func NewShellTool(timeout time.Duration) *ShellTool {
	return &ShellTool{Timeout: timeout}
}

func (t *ShellTool) builtin() {}

func (t *ShellTool) Name() string        { return ShellToolName }
func (t *ShellTool) DisplayName() string { return "Shell" }
func (t *ShellTool) Description() string {
	return "Executes a shell command and returns its stdout, stderr and exit code. Commands are killed after a fixed timeout."
}

func (t *ShellTool) InputSchema() mcptypes.ToolInputSchema {
	return mcptypes.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The exact command to run with sh -c",
			},
			"directory": map[string]any{
				"type":        "string",
				"description": "Working directory (defaults to the current directory)",
			},
		},
		Required: []string{"command"},
	}
}

func (t *ShellTool) timeout() time.Duration {
	if t.Timeout <= 0 {
		return config.DefaultShellTimeout
	}
	return t.Timeout
}

func (t *ShellTool) Validate(params Params) error {
	command, err := requiredString(params, "command")
	if err != nil {
		return err
	}
	if pattern := security.BlockedPattern(command); pattern != "" {
		return fmt.Errorf("%w: %q matches %q", ErrSafetyBlocked, command, pattern)
	}

	dir, err := optionalString(params, "directory")
	if err != nil {
		return err
	}
	if dir != "" {
		info, statErr := os.Stat(dir)
		if statErr != nil {
			return validationError("directory not found: %s", dir)
		}
		if !info.IsDir() {
			return validationError("not a directory: %s", dir)
		}
	}
	return nil
}

func (t *ShellTool) ShouldConfirm(params Params) *security.ConfirmationRequest {
	command, _ := params["command"].(string)
	return security.NeedsConfirmation(command)
}

// Execute validates params again before starting anything, so a caller that
// skipped Validate still cannot run a blocked command.
func (t *ShellTool) Execute(ctx context.Context, params Params) Result {
	if err := t.Validate(params); err != nil {
		config.DebugLog.Warn("shell command rejected", zap.Error(err))
		return failure(err, "")
	}

	command, _ := requiredString(params, "command")
	dir, _ := optionalString(params, "directory")
	if dir == "" {
		dir, _ = os.Getwd()
	}

	timeout := t.timeout()
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(execCtx, command)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	config.DebugLog.Debug("running shell command", zap.String("command", command), zap.String("dir", dir), zap.Duration("timeout", timeout))
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		config.DebugLog.Warn("shell command timed out", zap.String("command", command), zap.Duration("elapsed", elapsed))
		return Result{
			LLMContent:    fmt.Sprintf("Command timed out after %s: %s", timeout, command),
			ReturnDisplay: fmt.Sprintf("Command timed out after %s", timeout),
			Success:       false,
			Timestamp:     time.Now(),
			Err:           fmt.Errorf("%w after %s", ErrExecutionTimeout, timeout),
		}
	}
	if ctx.Err() != nil {
		return failure(fmt.Errorf("command cancelled: %w", ctx.Err()), "Command cancelled")
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return failure(fmt.Errorf("failed to start command: %w", err), "")
		}
		exitCode = exitErr.ExitCode()
	}

	config.DebugLog.Debug("shell command finished",
		zap.String("command", command),
		zap.Int("exit_code", exitCode),
		zap.Duration("elapsed", elapsed))

	res := Result{
		LLMContent:    formatShellLLMContent(command, dir, stdout.String(), stderr.String(), exitCode),
		ReturnDisplay: formatShellDisplay(stdout.String(), stderr.String()),
		Success:       exitCode == 0,
		Timestamp:     time.Now(),
	}
	if !res.Success {
		res.Err = fmt.Errorf("command exited with code %d", exitCode)
		if strings.TrimSpace(res.ReturnDisplay) == "" {
			res.ReturnDisplay = fmt.Sprintf("Command exited with code %d", exitCode)
		}
	}
	return res
}

func formatShellLLMContent(command, dir, stdout, stderr string, exitCode int) string {
	if stdout == "" {
		stdout = "(empty)"
	}
	if stderr == "" {
		stderr = "(none)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Command: %s\n", command)
	fmt.Fprintf(&b, "Directory: %s\n", dir)
	fmt.Fprintf(&b, "Output: %s\n", stdout)
	fmt.Fprintf(&b, "Error: %s\n", stderr)
	fmt.Fprintf(&b, "Exit Code: %d\n", exitCode)
	return b.String()
}

func formatShellDisplay(stdout, stderr string) string {
	display := stdout
	if stderr != "" {
		display += "\n[STDERR] " + stderr
	}
	return display
}
