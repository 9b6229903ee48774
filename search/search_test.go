package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osintworks/robin/core"
)

func resultsPage(links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i, l := range links {
		fmt.Fprintf(&sb, `<a href="%s">Result %d</a>`, l, i)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func testEngines(n int) []Engine {
	engines := make([]Engine, n)
	for i := range engines {
		engines[i] = Engine{
			Name: fmt.Sprintf("Engine%d", i),
			URL:  fmt.Sprintf("http://engine%d.onion/search?q={query}", i),
		}
	}
	return engines
}

func newTestClient(t *testing.T, engines []Engine, fetch FetchFunc, maxResults int) *Client {
	t.Helper()
	c, err := NewClient(func(o *Options) {
		o.Engines = engines
		o.Workers = 2
		o.MaxResults = maxResults
		o.RatePerSecond = 1000
		o.Fetch = fetch
	})
	require.NoError(t, err)
	return c
}

func TestSearchMergesAndDeduplicates(t *testing.T) {
	// Both engines return the shared link; it must appear once.
	fetch := func(_ context.Context, url, _ string) (string, error) {
		if strings.Contains(url, "engine0") {
			return resultsPage("http://sharedsite111111.onion/a", "http://onlyzero22222222.onion/b"), nil
		}
		return resultsPage("http://sharedsite111111.onion/a", "http://onlyone333333333.onion/c"), nil
	}

	c := newTestClient(t, testEngines(2), fetch, 20)
	results, err := c.Search(context.Background(), "ransomware", nil)
	require.NoError(t, err)

	links := map[string]bool{}
	for _, r := range results {
		assert.False(t, links[r.Link], "duplicate link %s", r.Link)
		links[r.Link] = true
	}
	assert.Len(t, results, 3)
}

func TestSearchEngineFailuresAreNotFatal(t *testing.T) {
	fetch := func(_ context.Context, url, _ string) (string, error) {
		if strings.Contains(url, "engine0") {
			return "", errors.New("connection refused")
		}
		return resultsPage("http://workingsite11111.onion/x"), nil
	}

	c := newTestClient(t, testEngines(2), fetch, 20)
	results, err := c.Search(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEarlyExitOnEnoughResults(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fetch := func(_ context.Context, _, _ string) (string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		// Each engine contributes two unique links.
		return resultsPage(
			fmt.Sprintf("http://site%02daaaaaaaaaa.onion/1", n),
			fmt.Sprintf("http://site%02dbbbbbbbbbb.onion/2", n),
		), nil
	}

	var statuses []string
	onProgress := func(p core.SearchProgress) { statuses = append(statuses, p.Status) }

	c := newTestClient(t, testEngines(20), fetch, 4)
	results, err := c.Search(context.Background(), "query", onProgress)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(results), 4)
	assert.Contains(t, statuses, "early_exit")
}

func TestSearchStopsOnHighFailureRate(t *testing.T) {
	fetch := func(_ context.Context, _, _ string) (string, error) {
		return "", errors.New("unreachable")
	}

	var statuses []string
	onProgress := func(p core.SearchProgress) { statuses = append(statuses, p.Status) }

	c := newTestClient(t, testEngines(20), fetch, 20)
	results, err := c.Search(context.Background(), "query", onProgress)
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Contains(t, statuses, "high_failure_rate")
}

func TestSearchProgressReporting(t *testing.T) {
	fetch := func(_ context.Context, _, _ string) (string, error) {
		return resultsPage("http://progresstest111.onion/x"), nil
	}

	var progress []core.SearchProgress
	c := newTestClient(t, testEngines(1), fetch, 20)
	_, err := c.Search(context.Background(), "query", func(p core.SearchProgress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, progress)
	assert.Equal(t, "starting", progress[0].Status)
	last := progress[len(progress)-1]
	assert.Equal(t, "complete", last.Status)
	assert.Equal(t, 1, last.CompletedEngines)
	assert.Equal(t, 1, last.TotalResults)
	for _, p := range progress {
		assert.Equal(t, 1, p.TotalEngines)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	c := newTestClient(t, testEngines(1), func(context.Context, string, string) (string, error) {
		return "", nil
	}, 20)
	_, err := c.Search(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestBuildURLEncodesSpaces(t *testing.T) {
	e := Engine{Name: "X", URL: "http://x.onion/search?q={query}"}
	assert.Equal(t, "http://x.onion/search?q=lockbit+leak", buildURL(e, "lockbit leak"))
}

func TestExtractOnionLinks(t *testing.T) {
	body := `<html><body>
		<a href="http://abcdefabcdefabcd.onion/page">Hidden service</a>
		<a href="https://clearnet.example.com/x">Clearnet</a>
		<a href="/relative">Relative</a>
		<a href="http://zyxwvuzyxwvuzyxw.onion">No text<span> here</span></a>
	</body></html>`

	links := extractOnionLinks(body)
	require.Len(t, links, 2)
	assert.Equal(t, "http://abcdefabcdefabcd.onion/page", links[0].Link)
	assert.Equal(t, "Hidden service", links[0].Title)
	assert.Equal(t, "No text here", links[1].Title)
}
