package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"orby/config"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	listTimeout   = 10 * time.Second
	maxListingLen = 4 << 20
)

type httpStatusError struct {
	StatusCode int
	Status     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Identifier keys tried for each listing entry, in order. OpenAI-compatible
// servers may add a display "name" next to the "id" that requests need.
var (
	ollamaNameKeys = []string{"name", "model", "id"}
	openAINameKeys = []string{"id", "name", "model"}
)

// listModels fetches the model list at url. It never fails: any error or an
// unrecognized response yields []string{defaultModel}.
func listModels(ctx context.Context, client *http.Client, backend, url, defaultModel string, keys []string) []string {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	names, err := fetchModelNames(ctx, client, url, keys)
	if err != nil {
		config.DebugLog.Warn("model listing degraded",
			zap.String("backend", backend),
			zap.String("url", url),
			zap.Error(err))
		return []string{defaultModel}
	}
	if len(names) == 0 {
		config.DebugLog.Warn("model listing returned no recognizable models",
			zap.String("backend", backend),
			zap.String("url", url))
		return []string{defaultModel}
	}
	return names
}

func fetchModelNames(ctx context.Context, client *http.Client, url string, keys []string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingLen))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	return parseModelNames(body, keys), nil
}

// parseModelNames extracts model identifiers from a listing response. The
// collection may be under "models" or "data" (or be the top-level array) and
// each entry may be a bare string or an object carrying one of keys.
func parseModelNames(body []byte, keys []string) []string {
	root := gjson.ParseBytes(body)

	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.Get("models").IsArray():
		list = root.Get("models")
	case root.Get("data").IsArray():
		list = root.Get("data")
	default:
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	list.ForEach(func(_, entry gjson.Result) bool {
		name := entryName(entry, keys)
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names
}

func entryName(entry gjson.Result, keys []string) string {
	if entry.Type == gjson.String {
		return entry.String()
	}
	if !entry.IsObject() {
		return ""
	}
	for _, key := range keys {
		if v := entry.Get(key); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
