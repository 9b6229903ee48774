package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/model"
	"github.com/osintworks/robin/scrape"
	"github.com/osintworks/robin/search"
	"github.com/osintworks/robin/subagent"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	query   string
}

func (f *fakeSearcher) Search(_ context.Context, query string, onProgress func(core.SearchProgress)) ([]search.Result, error) {
	f.query = query
	if onProgress != nil {
		onProgress(core.SearchProgress{Status: "starting"})
	}
	return f.results, f.err
}

func TestSearchToolFormatsResults(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: "Leak forum", Link: "http://example1.onion/post"},
		{Title: "Market listing", Link: "http://example2.onion/item"},
	}}
	tl := NewSearchTool(searcher)

	text, err := tl.Call(testContext(), map[string]any{"query": "ransomware gang"})
	require.NoError(t, err)

	assert.Equal(t, "ransomware gang", searcher.query)
	assert.Contains(t, text, "Found **2** unique results")
	assert.Contains(t, text, "http://example1.onion/post")
	assert.Contains(t, text, "darkweb_scrape")
}

func TestSearchToolLongTitleStaysValidUTF8(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{
		{Title: strings.Repeat("데", 30), Link: "http://example1.onion/post"},
	}}
	tl := NewSearchTool(searcher)

	text, err := tl.Call(testContext(), map[string]any{"query": "leak"})
	require.NoError(t, err)

	// 80 bytes falls inside the 27th three-byte rune; the cut backs off to
	// the previous boundary.
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, strings.Repeat("데", 26)+"...")
}

func TestSearchToolEmptyQuery(t *testing.T) {
	tl := NewSearchTool(&fakeSearcher{})
	text, err := tl.Call(testContext(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, text, "No query provided")
}

func TestSearchToolFailureIsFriendlyText(t *testing.T) {
	tl := NewSearchTool(&fakeSearcher{err: errors.New("socks refused")})
	text, err := tl.Call(testContext(), map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Contains(t, text, "Search failed")
	assert.Contains(t, text, "Tor")
}

func TestSearchToolNoResults(t *testing.T) {
	tl := NewSearchTool(&fakeSearcher{})
	text, err := tl.Call(testContext(), map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Contains(t, text, "No results found")
}

type fakeScraper struct {
	targets []scrape.Target
}

func (f *fakeScraper) FetchAll(_ context.Context, targets []scrape.Target) []scrape.Page {
	f.targets = targets
	pages := make([]scrape.Page, len(targets))
	for i, tgt := range targets {
		pages[i] = scrape.Page{
			URL:     tgt.Link,
			Content: tgt.Title + " - " + strings.Repeat("intel ", 20),
			Fetched: true,
		}
	}
	return pages
}

func TestScrapeToolParsesTargets(t *testing.T) {
	scraper := &fakeScraper{}
	tl := NewScrapeTool(scraper)

	text, err := tl.Call(testContext(), map[string]any{
		"targets": []any{
			map[string]any{"title": "Forum", "link": "http://a.onion"},
			"http://b.onion",
			map[string]any{"title": "no link"},
		},
	})
	require.NoError(t, err)

	require.Len(t, scraper.targets, 2)
	assert.Equal(t, scrape.Target{Title: "Forum", Link: "http://a.onion"}, scraper.targets[0])
	assert.Equal(t, scrape.Target{Title: "Unknown", Link: "http://b.onion"}, scraper.targets[1])
	assert.Contains(t, text, "Successfully scraped **2/2** pages")
	assert.Contains(t, text, "## Source: http://a.onion")
}

func TestScrapeToolNoTargets(t *testing.T) {
	tl := NewScrapeTool(&fakeScraper{})
	text, err := tl.Call(testContext(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, text, "No targets provided")
}

func TestReportToolDefaultFilename(t *testing.T) {
	var gotFilename, gotContent string
	writer := ReportWriterFunc(func(_ context.Context, filename, content string) (string, error) {
		gotFilename = filename
		gotContent = content
		return "/reports/" + filename, nil
	})

	tl := NewReportTool(writer)
	tl.now = func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }

	text, err := tl.Call(testContext(), map[string]any{"content": "# Findings"})
	require.NoError(t, err)

	assert.Equal(t, "robin_report_2025-06-01_10-30-00.md", gotFilename)
	assert.Equal(t, "# Findings", gotContent)
	assert.Contains(t, text, "Report saved successfully")
}

func TestReportToolAppendsExtension(t *testing.T) {
	writer := ReportWriterFunc(func(_ context.Context, filename, _ string) (string, error) {
		return filename, nil
	})
	tl := NewReportTool(writer)

	text, err := tl.Call(testContext(), map[string]any{"content": "x", "filename": "findings"})
	require.NoError(t, err)
	assert.Contains(t, text, "findings.md")
}

func TestReportToolWriterErrorIsFriendlyText(t *testing.T) {
	writer := ReportWriterFunc(func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("disk full")
	})
	tl := NewReportTool(writer)

	text, err := tl.Call(testContext(), map[string]any{"content": "x"})
	require.NoError(t, err)
	assert.Contains(t, text, "Failed to save report")
	assert.Contains(t, text, "disk full")
}

func TestDelegateToolValidatesAgentTypes(t *testing.T) {
	tl := NewDelegateTool(model.NewScriptedModel())

	text, err := tl.Call(testContext(), map[string]any{
		"agent_types": []any{"Nonexistent"},
		"content":     "some content",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "Invalid agent types")
	assert.Contains(t, text, "Nonexistent")
}

func TestDelegateToolListsAgentsWhenNoneGiven(t *testing.T) {
	tl := NewDelegateTool(model.NewScriptedModel())

	text, err := tl.Call(testContext(), map[string]any{"content": "x"})
	require.NoError(t, err)
	assert.Contains(t, text, "No agents specified")
	assert.Contains(t, text, subagent.TypeIOCExtractor)
}

func TestDelegateToolRequiresContent(t *testing.T) {
	tl := NewDelegateTool(model.NewScriptedModel())

	text, err := tl.Call(testContext(), map[string]any{
		"agent_types": []any{subagent.TypeIOCExtractor},
	})
	require.NoError(t, err)
	assert.Contains(t, text, "No content provided")
}

type sinkRecorder struct {
	started  []string
	finished []string
}

func (s *sinkRecorder) SearchProgress(core.SearchProgress) {}
func (s *sinkRecorder) SubAgentStarted(agentType string)   { s.started = append(s.started, agentType) }
func (s *sinkRecorder) SubAgentFinished(agentType, _ string, _ bool, _ string) {
	s.finished = append(s.finished, agentType)
}

func TestDelegateToolRunsSpecialistsAndFormatsSections(t *testing.T) {
	m := model.NewScriptedModel()
	m.Enqueue(model.TextScript("extracted indicators"))

	sink := &sinkRecorder{}
	tctx := NewContext(context.Background(), nil, sink, "call_1")

	tl := NewDelegateTool(m)
	text, err := tl.Call(tctx, map[string]any{
		"agent_types": []any{subagent.TypeIOCExtractor},
		"content":     "scraped page text",
		"context":     "ransomware investigation",
	})
	require.NoError(t, err)

	assert.Contains(t, text, "## Sub-Agent Analysis Results")
	assert.Contains(t, text, "### "+subagent.TypeIOCExtractor)
	assert.Contains(t, text, "extracted indicators")
	assert.Equal(t, []string{subagent.TypeIOCExtractor}, sink.started)
	assert.Equal(t, []string{subagent.TypeIOCExtractor}, sink.finished)
}
