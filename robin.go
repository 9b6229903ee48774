// Package robin assembles the dark web OSINT investigation engine: a
// tool-using agent that searches onion services, scrapes pages, delegates
// analysis to specialist sub-agents and streams its progress to subscribers.
package robin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/osintworks/robin/config"
	"github.com/osintworks/robin/logging"
	"github.com/osintworks/robin/model"
	anthropicmodel "github.com/osintworks/robin/model/anthropic"
	openaimodel "github.com/osintworks/robin/model/openai"
	"github.com/osintworks/robin/runner"
	"github.com/osintworks/robin/scrape"
	"github.com/osintworks/robin/search"
	"github.com/osintworks/robin/store"
	"github.com/osintworks/robin/stream"
	"github.com/osintworks/robin/subagent"
	"github.com/osintworks/robin/tool"
)

// Engine bundles the wired components of one deployment.
type Engine struct {
	cfg      config.Config
	logger   logging.Logger
	model    model.Model
	registry *tool.Registry
	store    *store.Store
	sessions *runner.Manager

	// ReportDir is where save_report writes markdown files.
	ReportDir string
}

// Options override parts of the wiring, mainly for tests and embedders.
type Options struct {
	Logger    logging.Logger
	Model     model.Model
	Store     *store.Store
	Searcher  tool.Searcher
	Scraper   tool.Scraper
	ReportDir string
}

// New wires an engine from configuration.
func New(cfg config.Config, optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{ReportDir: "."}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New(&logging.Config{Level: logging.ParseLevel(cfg.Log.Level), Format: cfg.Log.Format})
	}

	m := opts.Model
	if m == nil {
		var err error
		m, err = buildModel(cfg.Model)
		if err != nil {
			return nil, err
		}
	}

	st := opts.Store
	if st == nil && cfg.Store.Path != "" {
		var err error
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
	}

	searcher := opts.Searcher
	if searcher == nil {
		client, err := search.NewClient(func(o *search.Options) {
			o.Workers = cfg.Search.Workers
			o.EngineTimeout = cfg.Search.EngineTimeout()
			o.MaxResults = cfg.Search.MaxResults
			o.RatePerSecond = cfg.Search.RatePerSecond
			o.SOCKS5Addr = cfg.Tor.SOCKS5Addr
			o.UseTor = cfg.Tor.Enabled
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		searcher = client
	}

	scraper := opts.Scraper
	if scraper == nil {
		sc, err := scrape.New(func(o *scrape.Options) {
			o.Timeout = cfg.Scrape.Timeout()
			o.MaxChars = cfg.Scrape.MaxChars
			o.Workers = cfg.Scrape.Workers
			o.SOCKS5Addr = cfg.Tor.SOCKS5Addr
			o.UseTor = cfg.Tor.Enabled
			o.Logger = logger
		})
		if err != nil {
			return nil, err
		}
		scraper = sc
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		model:     m,
		store:     st,
		sessions:  runner.NewManager(),
		ReportDir: opts.ReportDir,
	}

	e.registry = tool.NewRegistry(
		tool.NewSearchTool(searcher),
		tool.NewScrapeTool(scraper),
		tool.NewReportTool(e.reportWriter()),
		tool.NewDelegateTool(m),
	)

	return e, nil
}

func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropicmodel.ModelName(cfg.Name)
			}
			o.MaxTokens = cfg.MaxTokens
			o.Temperature = cfg.Temperature
			o.APIKey = cfg.APIKey
		}), nil
	case "openai", "ollama":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.MaxCompletionTokens = cfg.MaxTokens
			o.Temperature = cfg.Temperature
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey
			o.Provider = cfg.Provider
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// reportWriter persists reports to disk and, when a store is attached, to the
// database as well.
func (e *Engine) reportWriter() tool.ReportWriter {
	return tool.ReportWriterFunc(func(ctx context.Context, filename, content string) (string, error) {
		path := filepath.Join(e.ReportDir, filepath.Base(filename))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", err
		}
		if e.store != nil {
			if _, err := e.store.SaveReport(ctx, "", filename, content); err != nil {
				e.logger.Warn("report not persisted to store", "filename", filename, "error", err)
			}
		}
		return path, nil
	})
}

// NewSession creates and registers a new investigation session.
func (e *Engine) NewSession() *runner.Session {
	return e.sessions.Create(e.model, e.registry, func(o *runner.Options) {
		o.MaxTurns = e.cfg.Model.MaxTurns
		o.MaxTokens = e.cfg.Model.MaxTokens
		o.Store = e.store
		o.Logger = e.logger
		o.StreamOpts = []func(o *stream.Options){func(o *stream.Options) {
			o.Keepalive = e.cfg.Stream.Keepalive()
			o.ToolPreviewChars = e.cfg.Stream.ToolPreviewChars
			o.AnalysisPreviewChars = e.cfg.Stream.AnalysisPreviewChars
			o.Logger = e.logger
		}}
	})
}

// Session returns a registered session by id.
func (e *Engine) Session(id string) (*runner.Session, error) {
	return e.sessions.Get(id)
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *runner.Manager { return e.sessions }

// Store returns the persistence layer, which may be nil.
func (e *Engine) Store() *store.Store { return e.store }

// Tools returns the registered tool names in dispatch order.
func (e *Engine) Tools() []string { return e.registry.Names() }

// RunSubAgents fans analysis out to the named specialists directly, outside
// a conversation.
func (e *Engine) RunSubAgents(ctx context.Context, agentTypes []string, content, investigationContext string) []subagent.Result {
	return subagent.Run(ctx, e.model, agentTypes, content, investigationContext, func(o *subagent.Options) {
		o.Logger = e.logger
	})
}

// Close releases engine resources.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
