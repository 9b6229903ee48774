// Package search fans a query out across dark web search engines over Tor,
// merging deduplicated results and reporting per-engine progress. The fan-out
// exits early once enough results are collected or once the failure rate
// makes further waiting pointless.
package search

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/logging"
)

const (
	// minResultsEarlyExit stops the fan-out once this many unique links exist.
	minResultsEarlyExit = 20
	// maxFailurePercent stops the fan-out when this share of engines failed.
	maxFailurePercent = 80
	// minEnginesForFailureExit guards the failure-rate exit against small samples.
	minEnginesForFailureExit = 5
)

// Result is one deduplicated search hit.
type Result struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Engine string `json:"engine,omitempty"`
}

// FetchFunc retrieves the body of a search results page. Injectable for tests.
type FetchFunc func(ctx context.Context, url, userAgent string) (string, error)

// Options configure the search client.
type Options struct {
	Engines       []Engine
	Workers       int
	EngineTimeout time.Duration
	MaxResults    int
	RatePerSecond float64
	SOCKS5Addr    string
	UseTor        bool
	Fetch         FetchFunc
	Logger        logging.Logger
}

// Client queries multiple engines concurrently.
type Client struct {
	opts    Options
	fetch   FetchFunc
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewClient constructs a search client. Without an injected FetchFunc it
// builds an HTTP client dialing through the configured SOCKS5 proxy.
func NewClient(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		Engines:       DefaultEngines(),
		Workers:       5,
		EngineTimeout: 15 * time.Second,
		MaxResults:    minResultsEarlyExit,
		RatePerSecond: 10,
		SOCKS5Addr:    "127.0.0.1:9050",
		UseTor:        true,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	fetch := opts.Fetch
	if fetch == nil {
		httpClient, err := newHTTPClient(opts)
		if err != nil {
			return nil, err
		}
		fetch = func(ctx context.Context, url, userAgent string) (string, error) {
			return fetchPage(ctx, httpClient, url, userAgent)
		}
	}

	burst := int(opts.RatePerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		opts:    opts,
		fetch:   fetch,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst),
		logger:  opts.Logger,
	}, nil
}

func newHTTPClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        opts.Workers,
		MaxConnsPerHost:     2,
		IdleConnTimeout:     30 * time.Second,
		DisableKeepAlives:   false,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if opts.UseTor {
		dialer, err := proxy.SOCKS5("tcp", opts.SOCKS5Addr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer %s: %w", opts.SOCKS5Addr, err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer does not support context dialing")
		}
		transport.DialContext = contextDialer.DialContext
	} else {
		d := &net.Dialer{Timeout: 10 * time.Second}
		transport.DialContext = d.DialContext
	}

	return &http.Client{Transport: transport}, nil
}

type engineOutcome struct {
	engine  Engine
	status  string
	results []Result
}

// Search queries every configured engine concurrently and returns the merged,
// deduplicated results. Per-engine progress flows through onProgress when set.
// Engine failures never fail the search; only context cancellation does.
func (c *Client) Search(ctx context.Context, query string, onProgress func(core.SearchProgress)) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}

	engines := c.opts.Engines
	total := len(engines)

	report := func(p core.SearchProgress) {
		if onProgress != nil {
			p.TotalEngines = total
			onProgress(p)
		}
	}

	report(core.SearchProgress{
		Status:  "starting",
		Message: fmt.Sprintf("Starting search across %d dark web engines...", total),
	})

	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Engine)
	outcomes := make(chan engineOutcome)

	var wg sync.WaitGroup
	workers := c.opts.Workers
	if workers > total {
		workers = total
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for engine := range jobs {
				outcome := c.queryEngine(fanCtx, engine, query)
				select {
				case outcomes <- outcome:
				case <-fanCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, engine := range engines {
			select {
			case jobs <- engine:
			case <-fanCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var results []Result
	seen := map[string]bool{}
	completed := 0
	failed := 0

	for outcome := range outcomes {
		completed++
		if outcome.status != "success" {
			failed++
		}

		for _, r := range outcome.results {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			results = append(results, r)
		}

		report(core.SearchProgress{
			Engine:           outcome.engine.Name,
			Status:           outcome.status,
			ResultsCount:     len(outcome.results),
			CompletedEngines: completed,
			TotalResults:     len(results),
			Message:          outcomeMessage(outcome, c.opts.EngineTimeout),
		})

		if len(results) >= c.opts.MaxResults {
			report(core.SearchProgress{
				Status:           "early_exit",
				CompletedEngines: completed,
				TotalResults:     len(results),
				Message:          fmt.Sprintf("Found %d results, stopping early", len(results)),
			})
			cancel()
			break
		}

		if completed >= minEnginesForFailureExit {
			failureRate := failed * 100 / completed
			if failureRate >= maxFailurePercent {
				report(core.SearchProgress{
					Status:           "high_failure_rate",
					CompletedEngines: completed,
					TotalResults:     len(results),
					Message:          fmt.Sprintf("%d%% of engines failed, stopping", failureRate),
				})
				cancel()
				break
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}

	report(core.SearchProgress{
		Status:           "complete",
		CompletedEngines: completed,
		TotalResults:     len(results),
		Message:          fmt.Sprintf("Search complete: %d unique results from %d engines", len(results), completed),
	})

	c.logger.Info("search finished", "query", query, "results", len(results), "engines", completed, "failed", failed)

	return results, nil
}

// queryEngine fetches and parses one engine's results page. Progress is
// reported by the merge loop, not here, so the sink sees a single writer.
func (c *Client) queryEngine(ctx context.Context, engine Engine, query string) engineOutcome {
	if err := c.limiter.Wait(ctx); err != nil {
		return engineOutcome{engine: engine, status: "failed"}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.EngineTimeout)
	defer cancel()

	url := buildURL(engine, query)
	agent := userAgents[rand.Intn(len(userAgents))]

	body, err := c.fetch(reqCtx, url, agent)
	if err != nil {
		status := "failed"
		if reqCtx.Err() == context.DeadlineExceeded {
			status = "timeout"
		}
		c.logger.Debug("engine query failed", "engine", engine.Name, "error", err)
		return engineOutcome{engine: engine, status: status}
	}

	links := extractOnionLinks(body)
	results := make([]Result, 0, len(links))
	for _, l := range links {
		results = append(results, Result{Title: l.Title, Link: l.Link, Engine: engine.Name})
	}
	return engineOutcome{engine: engine, status: "success", results: results}
}

func outcomeMessage(o engineOutcome, timeout time.Duration) string {
	switch o.status {
	case "success":
		return fmt.Sprintf("Found %d results", len(o.results))
	case "timeout":
		return fmt.Sprintf("Timed out after %s", timeout)
	default:
		return "Connection failed"
	}
}

// Engines returns the names of the configured engines.
func (c *Client) Engines() []string {
	names := make([]string, len(c.opts.Engines))
	for i, e := range c.opts.Engines {
		names[i] = e.Name
	}
	return names
}
