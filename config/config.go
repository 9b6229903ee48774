// Package config provides configuration loading for the investigation engine.
//
// Supports TOML configuration files with sensible defaults and environment
// variable overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete engine configuration.
type Config struct {
	// Model provider and conversation settings
	Model ModelConfig `toml:"model"`

	// Tor network settings
	Tor TorConfig `toml:"tor"`

	// Search fan-out settings
	Search SearchConfig `toml:"search"`

	// Scraper settings
	Scrape ScrapeConfig `toml:"scrape"`

	// Event stream settings
	Stream StreamConfig `toml:"stream"`

	// Persistence settings
	Store StoreConfig `toml:"store"`

	// Logging settings
	Log LogConfig `toml:"log"`
}

// ModelConfig selects the LLM provider and bounds the conversation.
type ModelConfig struct {
	// Provider is one of "anthropic", "openai", "ollama".
	Provider string `toml:"provider"`
	// Name is the provider-specific model identifier.
	Name string `toml:"name"`
	// BaseURL overrides the API endpoint (used for Ollama and compatibles).
	BaseURL string `toml:"base_url"`
	// APIKey is normally supplied via environment instead.
	APIKey string `toml:"api_key"`
	// MaxTurns caps assistant turns per investigation segment.
	MaxTurns int `toml:"max_turns"`
	// MaxTokens caps tokens per model response.
	MaxTokens int64 `toml:"max_tokens"`
	// Temperature for sampling.
	Temperature float64 `toml:"temperature"`
}

// TorConfig locates the SOCKS5 proxy used to reach onion services.
type TorConfig struct {
	// SOCKS5Addr is the host:port of the Tor SOCKS proxy.
	SOCKS5Addr string `toml:"socks5_addr"`
	// Enabled routes onion traffic through the proxy. Disable only for tests.
	Enabled bool `toml:"enabled"`
}

// SearchConfig tunes the parallel onion search fan-out.
type SearchConfig struct {
	// Workers is the number of concurrent engine queries.
	Workers int `toml:"workers"`
	// EngineTimeoutSecs bounds each engine request.
	EngineTimeoutSecs int `toml:"engine_timeout_secs"`
	// MaxResults stops the fan-out early once this many links are collected.
	MaxResults int `toml:"max_results"`
	// RatePerSecond limits outbound engine requests.
	RatePerSecond float64 `toml:"rate_per_second"`
}

// ScrapeConfig tunes page fetching.
type ScrapeConfig struct {
	// TimeoutSecs bounds each page fetch.
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxChars caps extracted text per page.
	MaxChars int `toml:"max_chars"`
	// Workers is the number of concurrent page fetches.
	Workers int `toml:"workers"`
}

// StreamConfig tunes the outbound event bridge.
type StreamConfig struct {
	// KeepaliveSecs is the idle interval before a keepalive event is emitted.
	KeepaliveSecs int `toml:"keepalive_secs"`
	// ToolPreviewChars caps tool output previews in events.
	ToolPreviewChars int `toml:"tool_preview_chars"`
	// AnalysisPreviewChars caps sub-agent analysis previews in events.
	AnalysisPreviewChars int `toml:"analysis_preview_chars"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	// Path is the database file. ":memory:" keeps everything in RAM.
	Path string `toml:"path"`
}

// LogConfig tunes structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Provider:    "anthropic",
			Name:        "",
			MaxTurns:    20,
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Tor: TorConfig{
			SOCKS5Addr: "127.0.0.1:9050",
			Enabled:    true,
		},
		Search: SearchConfig{
			Workers:           5,
			EngineTimeoutSecs: 15,
			MaxResults:        20,
			RatePerSecond:     10,
		},
		Scrape: ScrapeConfig{
			TimeoutSecs: 45,
			MaxChars:    2000,
			Workers:     5,
		},
		Stream: StreamConfig{
			KeepaliveSecs:        30,
			ToolPreviewChars:     500,
			AnalysisPreviewChars: 2000,
		},
		Store: StoreConfig{
			Path: "robin.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file is
// not an error; the defaults are returned. Environment variables override
// credentials afterwards.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides credentials and endpoints from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Model.Provider == "anthropic" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Model.Provider == "openai" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("ROBIN_MODEL_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("ROBIN_SOCKS5_ADDR"); v != "" {
		cfg.Tor.SOCKS5Addr = v
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch c.Model.Provider {
	case "anthropic", "openai", "ollama":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}
	if c.Model.MaxTurns <= 0 {
		return fmt.Errorf("model.max_turns must be positive, got %d", c.Model.MaxTurns)
	}
	if c.Search.Workers <= 0 {
		return fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers)
	}
	if c.Scrape.Workers <= 0 {
		return fmt.Errorf("scrape.workers must be positive, got %d", c.Scrape.Workers)
	}
	return nil
}

// EngineTimeout returns the per-engine search timeout as a duration.
func (c SearchConfig) EngineTimeout() time.Duration {
	return time.Duration(c.EngineTimeoutSecs) * time.Second
}

// Timeout returns the page fetch timeout as a duration.
func (c ScrapeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Keepalive returns the idle keepalive interval as a duration.
func (c StreamConfig) Keepalive() time.Duration {
	return time.Duration(c.KeepaliveSecs) * time.Second
}
