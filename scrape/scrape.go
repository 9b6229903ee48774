// Package scrape fetches pages and extracts readable text. Onion URLs are
// fetched through the Tor SOCKS proxy; clearweb URLs go direct. Script and
// style content is stripped and the extracted text is capped per page.
package scrape

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/proxy"

	"github.com/osintworks/robin/logging"
)

// Target identifies a page to fetch, usually taken from a search result.
type Target struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Page is the extracted content of one target. Content falls back to the
// title alone when the fetch failed.
type Page struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Fetched bool   `json:"fetched"`
}

// FetchFunc retrieves the raw body of a URL. Injectable for tests.
type FetchFunc func(ctx context.Context, url, userAgent string) (string, error)

// Options configure the scraper.
type Options struct {
	Timeout    time.Duration
	MaxChars   int
	Workers    int
	SOCKS5Addr string
	UseTor     bool
	Fetch      FetchFunc
	Logger     logging.Logger
}

// Scraper fetches pages concurrently and extracts their text.
type Scraper struct {
	opts   Options
	fetch  FetchFunc
	logger logging.Logger
}

// userAgents rotated across page fetches.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:137.0) Gecko/20100101 Firefox/137.0",
	"Mozilla/5.0 (X11; Linux i686; rv:137.0) Gecko/20100101 Firefox/137.0",
}

// New constructs a scraper. Without an injected FetchFunc it builds two HTTP
// clients, one dialing through Tor for onion hosts and one direct.
func New(optFns ...func(o *Options)) (*Scraper, error) {
	opts := Options{
		Timeout:    45 * time.Second,
		MaxChars:   2000,
		Workers:    5,
		SOCKS5Addr: "127.0.0.1:9050",
		UseTor:     true,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	fetch := opts.Fetch
	if fetch == nil {
		torClient, directClient, err := newHTTPClients(opts)
		if err != nil {
			return nil, err
		}
		fetch = func(ctx context.Context, url, userAgent string) (string, error) {
			client := directClient
			if opts.UseTor && strings.Contains(url, ".onion") {
				client = torClient
			}
			return fetchBody(ctx, client, url, userAgent)
		}
	}

	return &Scraper{opts: opts, fetch: fetch, logger: opts.Logger}, nil
}

func newHTTPClients(opts Options) (tor, direct *http.Client, err error) {
	direct = &http.Client{Timeout: opts.Timeout}

	if !opts.UseTor {
		return direct, direct, nil
	}

	dialer, err := proxy.SOCKS5("tcp", opts.SOCKS5Addr, nil, proxy.Direct)
	if err != nil {
		return nil, nil, fmt.Errorf("socks5 dialer %s: %w", opts.SOCKS5Addr, err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, nil, fmt.Errorf("socks5 dialer does not support context dialing")
	}

	transport := &http.Transport{
		DialContext:     contextDialer.DialContext,
		IdleConnTimeout: 30 * time.Second,
	}
	tor = &http.Client{Transport: transport, Timeout: opts.Timeout}
	return tor, direct, nil
}

// Fetch scrapes a single target. A failed fetch is not an error; the page
// carries the title alone with Fetched false.
func (s *Scraper) Fetch(ctx context.Context, target Target) Page {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	agent := userAgents[rand.Intn(len(userAgents))]

	body, err := s.fetch(reqCtx, target.Link, agent)
	if err != nil {
		s.logger.Debug("scrape failed", "url", target.Link, "error", err)
		return Page{URL: target.Link, Content: s.truncate(target.Title), Fetched: false}
	}

	text := extractText(body)
	content := text
	if target.Title != "" {
		content = target.Title + " - " + text
	}
	return Page{URL: target.Link, Content: s.truncate(content), Fetched: true}
}

// FetchAll scrapes the targets concurrently and returns pages in input order.
func (s *Scraper) FetchAll(ctx context.Context, targets []Target) []Page {
	pages := make([]Page, len(targets))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.opts.Workers
	if workers > len(targets) {
		workers = len(targets)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pages[idx] = s.Fetch(ctx, targets[idx])
			}
		}()
	}

	for idx := range targets {
		select {
		case jobs <- idx:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	fetched := 0
	for _, p := range pages {
		if p.Fetched {
			fetched++
		}
	}
	s.logger.Info("scrape finished", "fetched", fetched, "total", len(targets))

	return pages
}

func (s *Scraper) truncate(text string) string {
	limit := s.opts.MaxChars
	if limit <= 0 || len(text) <= limit {
		return text
	}
	// Back off to a rune boundary so truncation never splits a character.
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "... (truncated)"
}

// fetchBody performs a GET and returns the body as a string.
func fetchBody(ctx context.Context, client *http.Client, url, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	const maxBodyBytes = 4 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractText strips script and style subtrees and collapses the remaining
// text nodes into whitespace-normalized prose.
func extractText(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}
