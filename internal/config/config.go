package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sharexpurge/internal/core/domain"
	"sharexpurge/internal/history"
)

// EnvPrefix namespaces environment overrides, e.g. SHAREX_PURGE_HISTORY_HOST.
const EnvPrefix = "SHAREX_PURGE"

// Defaults.
const (
	DefaultHost     = "Imgur"
	DefaultMaxBatch = 1250
)

// Config is built once at the CLI boundary and passed down explicitly.
type Config struct {
	History HistoryConfig `mapstructure:"history"`
	Delete  DeleteConfig  `mapstructure:"delete"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// HistoryConfig locates the history log and selects which uploads to purge.
type HistoryConfig struct {
	Path   string        `mapstructure:"path"`
	Host   string        `mapstructure:"host"`
	Window time.Duration `mapstructure:"window"`
	Since  string        `mapstructure:"since"` // RFC3339, overrides Window
	All    bool          `mapstructure:"all"`
}

// DeleteConfig controls the bulk deletion phase.
type DeleteConfig struct {
	MaxBatch       int           `mapstructure:"max_batch"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	DryRun         bool          `mapstructure:"dry_run"`
}

// LogConfig configures console logging and the optional rotated log file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig names the textfile the run's metrics are written to.
// Empty disables the export.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// New returns a viper instance carrying defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("history.path", "")
	v.SetDefault("history.host", DefaultHost)
	v.SetDefault("history.window", history.DefaultWindow)
	v.SetDefault("history.since", "")
	v.SetDefault("history.all", false)
	v.SetDefault("delete.max_batch", DefaultMaxBatch)
	v.SetDefault("delete.request_timeout", time.Duration(0))
	v.SetDefault("delete.dry_run", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 0)
	v.SetDefault("log.max_backups", 0)
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.compress", false)
	v.SetDefault("metrics.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.History.Host == "" {
		return fmt.Errorf("history.host must not be empty")
	}
	if c.History.Window <= 0 {
		return fmt.Errorf("history.window must be positive")
	}
	if c.History.Since != "" {
		if _, err := time.Parse(time.RFC3339, c.History.Since); err != nil {
			return fmt.Errorf("history.since: %w", err)
		}
	}
	if c.Delete.MaxBatch <= 0 {
		return fmt.Errorf("delete.max_batch must be positive, got %d", c.Delete.MaxBatch)
	}
	if c.Delete.RequestTimeout < 0 {
		return fmt.Errorf("delete.request_timeout must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format: invalid format %q, allowed: text, json", c.Log.Format)
	}
	return nil
}

// Criteria resolves the selection criteria relative to now.
// Precedence: All, then Since, then Window. A zero-value Config
// falls back to the default 24h window.
func (c *Config) Criteria(now time.Time) domain.Criteria {
	crit := domain.Criteria{Host: c.History.Host}
	switch {
	case c.History.All:
		crit.Cutoff = history.Unbounded()
	case c.History.Since != "":
		// Validate has already checked the format.
		crit.Cutoff, _ = time.Parse(time.RFC3339, c.History.Since)
	case c.History.Window > 0:
		crit.Cutoff = now.Add(-c.History.Window)
	default:
		crit.Cutoff = history.DefaultCutoff(now)
	}
	return crit
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", s)
	}
}
