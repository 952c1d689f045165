package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"orby/config"
	"orby/security"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const ReadFileToolName = "read_file"

// ReadFileTool returns a line range of a text file. Callers page through
// large files by re-invoking it with a new offset; the tool keeps no cursor.
type ReadFileTool struct{}

func NewReadFileTool() *ReadFileTool {
	return &ReadFileTool{}
}

func (t *ReadFileTool) builtin() {}

func (t *ReadFileTool) Name() string        { return ReadFileToolName }
func (t *ReadFileTool) DisplayName() string { return "ReadFile" }
func (t *ReadFileTool) Description() string {
	return "Reads and returns the content of a text file. Use offset and limit to read a range of lines from large files."
}

func (t *ReadFileTool) InputSchema() mcptypes.ToolInputSchema {
	return mcptypes.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"absolute_path": map[string]any{
				"type":        "string",
				"description": "Absolute path of the file to read",
			},
			"offset": map[string]any{
				"type":        "integer",
				"description": "0-based line number to start reading from",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of lines to read",
			},
		},
		Required: []string{"absolute_path"},
	}
}

type readRange struct {
	path   string
	offset int
	limit  int // 0 means to end of file
}

func (t *ReadFileTool) parse(params Params) (readRange, error) {
	path, err := requiredString(params, "absolute_path")
	if err != nil {
		return readRange{}, err
	}
	if !filepath.IsAbs(path) {
		return readRange{}, validationError("file path must be absolute: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return readRange{}, validationError("file not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return readRange{}, validationError("path is not a regular file: %s", path)
	}

	offset, _, err := optionalInt(params, "offset")
	if err != nil {
		return readRange{}, err
	}
	if offset < 0 {
		return readRange{}, validationError("offset must not be negative")
	}
	limit, hasLimit, err := optionalInt(params, "limit")
	if err != nil {
		return readRange{}, err
	}
	if hasLimit && limit <= 0 {
		return readRange{}, validationError("limit must be positive")
	}

	return readRange{path: path, offset: offset, limit: limit}, nil
}

func (t *ReadFileTool) Validate(params Params) error {
	_, err := t.parse(params)
	return err
}

func (t *ReadFileTool) ShouldConfirm(Params) *security.ConfirmationRequest {
	return nil
}

func (t *ReadFileTool) Execute(ctx context.Context, params Params) Result {
	rr, err := t.parse(params)
	if err != nil {
		return failure(err, "")
	}
	if err := ctx.Err(); err != nil {
		return failure(err, "")
	}

	data, err := os.ReadFile(rr.path)
	if err != nil {
		return failure(fmt.Errorf("error reading file: %w", err), "")
	}
	if !utf8.Valid(data) {
		return failure(fmt.Errorf("%s is not a UTF-8 text file", rr.path), "")
	}

	lines := splitLines(string(data))
	total := len(lines)

	if rr.offset > 0 && rr.offset >= total {
		return failure(fmt.Errorf("offset %d is beyond the end of %s (%d lines)", rr.offset, rr.path, total), "")
	}

	start := rr.offset
	end := total
	if rr.limit > 0 && start+rr.limit < total {
		end = start + rr.limit
	}
	content := strings.Join(lines[start:end], "")
	truncated := start > 0 || end < total

	config.DebugLog.Debug("read file",
		zap.String("path", rr.path),
		zap.Int("start", start),
		zap.Int("end", end),
		zap.Int("total", total))

	res := Result{
		LLMContent:    content,
		ReturnDisplay: "Read file: " + rr.path,
		Success:       true,
		Truncated:     truncated,
		Timestamp:     time.Now(),
	}
	if truncated {
		res.LLMContent = truncationNotice(start+1, end, total) + content
		res.ReturnDisplay += fmt.Sprintf(" (lines %d-%d of %d)", start+1, end, total)
	}
	return res
}

func truncationNotice(first, last, total int) string {
	return fmt.Sprintf("\nIMPORTANT: The file content has been truncated.\n"+
		"Status: Showing lines %d-%d of %d total lines.\n"+
		"Action: To read more of the file, you can use the 'offset' and 'limit' parameters in a subsequent 'read_file' call.\n\n"+
		"--- FILE CONTENT (truncated) ---\n", first, last, total)
}

// splitLines splits s after each newline, keeping line endings.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
