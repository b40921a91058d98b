package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharexpurge/internal/history"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.History.Path)
	assert.Equal(t, DefaultHost, cfg.History.Host)
	assert.Equal(t, history.DefaultWindow, cfg.History.Window)
	assert.False(t, cfg.History.All)
	assert.Equal(t, DefaultMaxBatch, cfg.Delete.MaxBatch)
	assert.Zero(t, cfg.Delete.RequestTimeout)
	assert.False(t, cfg.Delete.DryRun)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purge.yaml")
	content := `history:
  path: /tmp/History.json
  host: Catbox
  window: 48h
delete:
  max_batch: 10
  request_timeout: 15s
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/History.json", cfg.History.Path)
	assert.Equal(t, "Catbox", cfg.History.Host)
	assert.Equal(t, 48*time.Hour, cfg.History.Window)
	assert.Equal(t, 10, cfg.Delete.MaxBatch)
	assert.Equal(t, 15*time.Second, cfg.Delete.RequestTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purge.toml")
	require.NoError(t, os.WriteFile(path, []byte("[history]\nhost = \"Catbox\"\n"), 0o644))
	t.Setenv("SHAREX_PURGE_HISTORY_HOST", "Imgur")
	t.Setenv("SHAREX_PURGE_DELETE_MAX_BATCH", "3")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "Imgur", cfg.History.Host)
	assert.Equal(t, 3, cfg.Delete.MaxBatch)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			History: HistoryConfig{Host: "Imgur", Window: time.Hour},
			Delete:  DeleteConfig{MaxBatch: 1},
			Log:     LogConfig{Level: "info", Format: "text"},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"empty host":       func(c *Config) { c.History.Host = "" },
		"zero window":      func(c *Config) { c.History.Window = 0 },
		"negative window":  func(c *Config) { c.History.Window = -time.Hour },
		"bad since":        func(c *Config) { c.History.Since = "last tuesday" },
		"zero batch":       func(c *Config) { c.Delete.MaxBatch = 0 },
		"negative timeout": func(c *Config) { c.Delete.RequestTimeout = -time.Second },
		"bad level":        func(c *Config) { c.Log.Level = "loud" },
		"bad format":       func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestCriteria(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	c := Config{History: HistoryConfig{Host: "Imgur"}}
	assert.Equal(t, now.Add(-24*time.Hour), c.Criteria(now).Cutoff)
	assert.Equal(t, "Imgur", c.Criteria(now).Host)

	c.History.Window = 7 * 24 * time.Hour
	assert.Equal(t, now.Add(-7*24*time.Hour), c.Criteria(now).Cutoff)

	c.History.Since = "2024-01-01T00:00:00Z"
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.Criteria(now).Cutoff.UTC())

	c.History.All = true
	assert.Equal(t, history.Unbounded(), c.Criteria(now).Cutoff)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
