// Package tools implements the capabilities orby can run on the user's
// behalf before a prompt reaches the model: shell commands, web search and
// file reads.
//
// Every tool returns a Result with two renderings of the same outcome:
// LLMContent is fed back to the model and may be verbose, ReturnDisplay is
// the compact text shown to a human. Tools never return a Go error from
// Execute; failures are reported as a Result with Success=false and a
// non-empty ReturnDisplay, with the cause kept in Result.Err.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"orby/security"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

var (
	ErrValidation            = errors.New("invalid tool parameters")
	ErrSafetyBlocked         = errors.New("command blocked by safety policy")
	ErrExecutionTimeout      = errors.New("tool execution timed out")
	ErrDeclined              = errors.New("execution declined")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

// Params are the named arguments of a single tool invocation.
type Params map[string]any

// SearchResult is one web search hit.
type SearchResult struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Snippet   string    `json:"snippet"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of running a tool.
type Result struct {
	LLMContent    string         `json:"llmContent"`
	ReturnDisplay string         `json:"returnDisplay"`
	Success       bool           `json:"success"`
	Truncated     bool           `json:"truncated,omitempty"`
	Sources       []SearchResult `json:"sources,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`

	// Err is the cause of a failed result.
	Err error `json:"-"`
}

// Tool is implemented by ShellTool, WebSearchTool and ReadFileTool only.
type Tool interface {
	Name() string
	DisplayName() string
	Description() string
	InputSchema() mcptypes.ToolInputSchema

	// Validate checks params without side effects.
	Validate(params Params) error

	// ShouldConfirm returns a confirmation request when a human should
	// approve the invocation first, or nil.
	ShouldConfirm(params Params) *security.ConfirmationRequest

	Execute(ctx context.Context, params Params) Result

	builtin()
}

func failure(err error, display string) Result {
	if display == "" {
		display = "Error: " + err.Error()
	}
	return Result{
		LLMContent:    "Error: " + err.Error(),
		ReturnDisplay: display,
		Success:       false,
		Timestamp:     time.Now(),
		Err:           err,
	}
}

// Failed builds a failed result for an invocation that never reached a tool,
// such as a command the user declined to run.
func Failed(err error) Result {
	return failure(err, "")
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// requiredString returns the trimmed string parameter key or a validation error.
func requiredString(params Params, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", validationError("missing required parameter: %s", key)
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", validationError("%s must be a non-empty string", key)
	}
	return strings.TrimSpace(s), nil
}

func optionalString(params Params, key string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", validationError("%s must be a string", key)
	}
	return s, nil
}

// optionalInt accepts the integer shapes JSON decoding and Go callers produce.
func optionalInt(params Params, key string) (int, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int32:
		return int(v), true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, validationError("%s must be an integer", key)
		}
		return int(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, validationError("%s must be an integer", key)
		}
		return int(n), true, nil
	default:
		return 0, false, validationError("%s must be an integer", key)
	}
}
