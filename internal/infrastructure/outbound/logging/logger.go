package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sophialabs/stubhttp/internal/infrastructure/ports"
)

var _ ports.Logger = (*SlogLogger)(nil)

// SlogLogger wraps slog to implement ports.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a new SlogLogger from an slog.Logger.
func New(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Options select the slog handler built by Build.
type Options struct {
	Level  string // debug, info, warn, error or off
	Format string // text or json
	Output io.Writer
}

// Build creates a logger from opts. Level "off" discards everything.
func Build(opts Options) *SlogLogger {
	level, enabled := ParseLevel(opts.Level)
	if !enabled {
		return New(slog.New(slog.DiscardHandler))
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, hopts)
	default:
		handler = slog.NewTextHandler(out, hopts)
	}
	return New(slog.New(handler).With("component", "stubhttp"))
}

// ParseLevel maps a level name to an slog level. The second result is false
// when logging is switched off.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "", "off", "none":
		return 0, false
	default:
		return slog.LevelDebug, true
	}
}
