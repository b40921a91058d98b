package logger

import (
	"bytes"
	"io"
	"log/slog"
)

const colorReset = "\033[0m"

var levelKey = []byte(slog.LevelKey + "=")

// NewColorTextHandler returns a slog.TextHandler whose level values are
// wrapped in ANSI color codes. The codes are added after formatting because
// TextHandler would otherwise quote the escape bytes.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewTextHandler(colorWriter{w: w}, opts)
}

// colorWriter colors the level field of each formatted record. TextHandler
// emits one Write per record while holding its lock.
type colorWriter struct {
	w io.Writer
}

func (c colorWriter) Write(p []byte) (int, error) {
	i := bytes.Index(p, levelKey)
	if i < 0 {
		return c.w.Write(p)
	}
	start := i + len(levelKey)
	end := bytes.IndexAny(p[start:], " \n")
	if end < 0 {
		end = len(p)
	} else {
		end += start
	}
	level := p[start:end]

	out := make([]byte, 0, len(p)+len(colorReset)+5)
	out = append(out, p[:start]...)
	out = append(out, colorFor(level)...)
	out = append(out, level...)
	out = append(out, colorReset...)
	out = append(out, p[end:]...)
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func colorFor(level []byte) string {
	switch {
	case bytes.HasPrefix(level, []byte("ERROR")):
		return "\033[31m" // Red
	case bytes.HasPrefix(level, []byte("WARN")):
		return "\033[33m" // Yellow
	case bytes.HasPrefix(level, []byte("INFO")):
		return "\033[32m" // Green
	default:
		return "\033[36m" // Cyan
	}
}
