package logger

import (
	"io"
	"log/slog"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"sharexpurge/internal/config"
)

// Default rotation settings for the optional log file.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// New builds the run logger. Console output goes to console; when
// cfg.File is set every record is also written to a rotating file.
// The returned closer must be closed on exit; it is nil without a file.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(console, opts)
	} else {
		handler = NewColorTextHandler(console, opts)
	}

	fw := FileWriter(cfg)
	if fw == nil {
		return slog.New(handler), nil, nil
	}
	fileHandler := slog.NewJSONHandler(fw, opts)
	return slog.New(fanout{handler, fileHandler}), fw, nil
}

// FileWriter returns a lumberjack writer for cfg.File, or nil when unset.
func FileWriter(cfg config.LogConfig) io.WriteCloser {
	if cfg.File == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   cfg.File,
		MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   cfg.Compress,
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
