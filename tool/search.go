package tool

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/search"
)

// Searcher runs a dark web search fan-out. Satisfied by *search.Client.
type Searcher interface {
	Search(ctx context.Context, query string, onProgress func(core.SearchProgress)) ([]search.Result, error)
}

// maxDisplayedResults caps how many hits are listed in the tool result so a
// large fan-out does not flood the conversation.
const maxDisplayedResults = 50

// SearchTool exposes the multi-engine dark web search to the model.
type SearchTool struct {
	searcher Searcher
}

// NewSearchTool wraps a Searcher as a callable tool.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

func (t *SearchTool) Name() string { return "darkweb_search" }

func (t *SearchTool) Description() string {
	return "Search multiple dark web search engines simultaneously via Tor. Returns deduplicated results with titles and .onion links. Use this to gather initial intelligence on a topic."
}

func (t *SearchTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to run across dark web search engines",
			},
		},
		"required": []string{"query"},
	}
}

// Call runs the fan-out and formats the hits for the model, routing per-engine
// progress to the invocation's sink.
func (t *SearchTool) Call(tctx *Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "No query provided. Pass a 'query' string to search for.", nil
	}

	results, err := t.searcher.Search(tctx, query, tctx.Sink.SearchProgress)
	if err != nil {
		return fmt.Sprintf("Search failed: %v. Make sure Tor is running on port 9050.", err), nil
	}

	if len(results) == 0 {
		return "No results found. Try refining your search query or check Tor connectivity.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found **%d** unique results from dark web search engines.\n\n", len(results))

	shown := results
	if len(shown) > maxDisplayedResults {
		shown = shown[:maxDisplayedResults]
	}
	for i, res := range shown {
		title := res.Title
		if len(title) > 80 {
			cut := 80
			for cut > 0 && !utf8.RuneStart(title[cut]) {
				cut--
			}
			title = title[:cut] + "..."
		}
		fmt.Fprintf(&sb, "%d. **%s**\n   URL: %s\n\n", i+1, title, res.Link)
	}
	if len(results) > maxDisplayedResults {
		fmt.Fprintf(&sb, "... and %d more results.\n\n", len(results)-maxDisplayedResults)
	}

	sb.WriteString("**Next step**: Select the most relevant results and use `darkweb_scrape` with a list of targets containing title and link for each.")

	return sb.String(), nil
}
