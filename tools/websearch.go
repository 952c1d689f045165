package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"orby/config"
	"orby/security"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	WebSearchToolName = "google_web_search"

	DefaultSearchTimeout = 10 * time.Second
	defaultMaxResults    = 5
)

// Searcher is the replaceable backend of WebSearchTool.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// SearcherFunc adapts a plain function to Searcher.
type SearcherFunc func(ctx context.Context, query string, maxResults int) ([]SearchResult, error)

func (f SearcherFunc) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	return f(ctx, query, maxResults)
}

// WebSearchTool looks a query up through its Searcher.
type WebSearchTool struct {
	Searcher   Searcher
	Timeout    time.Duration
	MaxResults int
}

func NewWebSearchTool(s Searcher) *WebSearchTool {
	return &WebSearchTool{
		Searcher:   s,
		Timeout:    DefaultSearchTimeout,
		MaxResults: defaultMaxResults,
	}
}

// NewSearcher picks the search backend named by config.
func NewSearcher(provider string) Searcher {
	if provider == config.SearchProviderSimulated {
		return SimulatedSearcher{}
	}
	return NewDuckDuckGoSearcher()
}

func (t *WebSearchTool) builtin() {}

func (t *WebSearchTool) Name() string        { return WebSearchToolName }
func (t *WebSearchTool) DisplayName() string { return "GoogleSearch" }
func (t *WebSearchTool) Description() string {
	return "Performs a web search and returns the top results with titles, links and snippets."
}

func (t *WebSearchTool) InputSchema() mcptypes.ToolInputSchema {
	return mcptypes.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		Required: []string{"query"},
	}
}

func (t *WebSearchTool) Validate(params Params) error {
	_, err := requiredString(params, "query")
	return err
}

func (t *WebSearchTool) ShouldConfirm(Params) *security.ConfirmationRequest {
	return nil
}

func (t *WebSearchTool) Execute(ctx context.Context, params Params) Result {
	query, err := requiredString(params, "query")
	if err != nil {
		return failure(err, "")
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	maxResults := t.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var results []SearchResult
	if t.Searcher == nil {
		err = fmt.Errorf("no search provider configured")
	} else {
		results, err = t.Searcher.Search(searchCtx, query, maxResults)
	}
	if err != nil {
		config.DebugLog.Warn("web search failed", zap.String("query", query), zap.Error(err))
		return Result{
			LLMContent:    fmt.Sprintf("Web search for %q failed: %v", query, err),
			ReturnDisplay: fmt.Sprintf("Search for %q failed: %v", query, err),
			Success:       false,
			Sources:       []SearchResult{},
			Timestamp:     time.Now(),
			Err:           err,
		}
	}

	now := time.Now()
	for i := range results {
		if results[i].Timestamp.IsZero() {
			results[i].Timestamp = now
		}
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	config.DebugLog.Debug("web search finished", zap.String("query", query), zap.Int("results", len(results)))

	return Result{
		LLMContent:    formatSearchLLMContent(query, results),
		ReturnDisplay: fmt.Sprintf("Search results for %q returned (%d).", query, len(results)),
		Success:       true,
		Sources:       results,
		Timestamp:     now,
	}
}

func formatSearchLLMContent(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("Web search results for %q:\n\nNo results found.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for %q:\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "%s\n", r.Snippet)
		}
		b.WriteString("\n")
	}
	b.WriteString("Sources:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s)\n", i+1, r.Title, r.URL)
	}
	return b.String()
}

// SimulatedSearcher returns placeholder results without network access.
type SimulatedSearcher struct{}

func (SimulatedSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now()
	escaped := url.QueryEscape(query)
	results := []SearchResult{
		{
			Title:     "Search results for: " + query,
			URL:       "https://example.com/search?q=" + escaped,
			Snippet:   fmt.Sprintf("This is a simulated search result for '%s'. Configure search_provider = \"duckduckgo\" for live results.", query),
			Timestamp: now,
		},
		{
			Title:     "Related information about " + query,
			URL:       "https://example.com/related/" + url.PathEscape(query),
			Snippet:   fmt.Sprintf("Additional context about '%s' that could help answer your question.", query),
			Timestamp: now,
		},
	}
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}
