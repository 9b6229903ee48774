package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 20, cfg.Model.MaxTurns)
	assert.Equal(t, "127.0.0.1:9050", cfg.Tor.SOCKS5Addr)
	assert.True(t, cfg.Tor.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Search.EngineTimeout())
	assert.Equal(t, 45*time.Second, cfg.Scrape.Timeout())
	assert.Equal(t, 30*time.Second, cfg.Stream.Keepalive())
	assert.Equal(t, 500, cfg.Stream.ToolPreviewChars)
	assert.Equal(t, 2000, cfg.Stream.AnalysisPreviewChars)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Model.MaxTurns, cfg.Model.MaxTurns)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[model]
provider = "ollama"
name = "llama3"
base_url = "http://localhost:11434/v1"
max_turns = 5

[search]
workers = 3
engine_timeout_secs = 7

[stream]
keepalive_secs = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "llama3", cfg.Model.Name)
	assert.Equal(t, 5, cfg.Model.MaxTurns)
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.Equal(t, 7*time.Second, cfg.Search.EngineTimeout())
	assert.Equal(t, 10*time.Second, cfg.Stream.Keepalive())
	// Untouched sections keep their defaults.
	assert.Equal(t, "127.0.0.1:9050", cfg.Tor.SOCKS5Addr)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Model.Provider = "palm"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Model.MaxTurns = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Search.Workers = -1
	assert.Error(t, cfg.Validate())
}

func TestEnvOverridesCredentials(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("ROBIN_SOCKS5_ADDR", "10.0.0.5:9150")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Model.APIKey)
	assert.Equal(t, "10.0.0.5:9150", cfg.Tor.SOCKS5Addr)
}
