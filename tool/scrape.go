package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/osintworks/robin/scrape"
)

// Scraper fetches pages and extracts their text. Satisfied by *scrape.Scraper.
type Scraper interface {
	FetchAll(ctx context.Context, targets []scrape.Target) []scrape.Page
}

// ScrapeTool exposes onion page scraping to the model.
type ScrapeTool struct {
	scraper Scraper
}

// NewScrapeTool wraps a Scraper as a callable tool.
func NewScrapeTool(scraper Scraper) *ScrapeTool {
	return &ScrapeTool{scraper: scraper}
}

func (t *ScrapeTool) Name() string { return "darkweb_scrape" }

func (t *ScrapeTool) Description() string {
	return "Scrape and extract text content from .onion URLs via Tor. Pass a list of target objects, each with 'title' and 'link' keys. Returns cleaned text content from each page."
}

func (t *ScrapeTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"targets": map[string]any{
				"type":        "array",
				"description": "List of targets to scrape, each with 'title' and 'link' keys",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string"},
						"link":  map[string]any{"type": "string"},
					},
					"required": []string{"link"},
				},
			},
		},
		"required": []string{"targets"},
	}
}

// Call scrapes the requested targets and formats one section per page.
func (t *ScrapeTool) Call(tctx *Context, args map[string]any) (string, error) {
	targets := parseTargets(args["targets"])
	if len(targets) == 0 {
		return "No targets provided. Please specify URLs to scrape as a list of objects with 'title' and 'link' keys.", nil
	}

	pages := t.scraper.FetchAll(tctx, targets)

	var sb strings.Builder
	success := 0
	var sections []string
	for _, page := range pages {
		if page.Fetched && len(page.Content) > 50 {
			success++
			sections = append(sections, fmt.Sprintf("## Source: %s\n\n%s\n\n---", page.URL, page.Content))
		} else {
			sections = append(sections, fmt.Sprintf("## Source: %s\n\n*[Minimal or no content extracted]*\n\n---", page.URL))
		}
	}

	fmt.Fprintf(&sb, "Successfully scraped **%d/%d** pages.\n\n", success, len(targets))
	sb.WriteString(strings.Join(sections, "\n"))
	sb.WriteString("\n\n**Next step**: Analyze this content for intelligence artifacts and generate your findings report.")

	return sb.String(), nil
}

// parseTargets tolerates both target objects and bare URL strings.
func parseTargets(raw any) []scrape.Target {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var targets []scrape.Target
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			link, _ := v["link"].(string)
			if link == "" {
				continue
			}
			title, _ := v["title"].(string)
			if title == "" {
				title = "Unknown"
			}
			targets = append(targets, scrape.Target{Title: title, Link: link})
		case string:
			targets = append(targets, scrape.Target{Title: "Unknown", Link: v})
		}
	}
	return targets
}
