package darkroom

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// LogLevel is the verbosity of a darkroom logger.
type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota // discard everything
	LogLevelError                  // render failures
	LogLevelWarn                   // fallbacks, context loss, leaked render targets
	LogLevelInfo                   // backend selection, context restore
	LogLevelDebug                  // per-render statistics
)

// ParseLogLevel maps "debug", "info", "warn", "error" and "silent" to a
// LogLevel. Unknown strings return LogLevelSilent.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelSilent
	}
}

// String returns the config token for l.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return "silent"
	}
}

// slogLevel maps l onto the slog level scale.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NewLogger builds a text logger writing to w at the given level.
// LogLevelSilent (or a nil writer) yields a logger that discards everything.
func NewLogger(w io.Writer, level LogLevel) *slog.Logger {
	if w == nil || level == LogLevelSilent {
		return slog.New(nopHandler{})
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}))
}

// defaultLogger is the sink used when no logger is injected.
var defaultLogger = slog.New(nopHandler{})

// SetLogger replaces the package default logger. Pass nil to restore the
// silent default. Loggers injected through EditorOptions or RendererOptions
// take precedence.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	defaultLogger = l
}

// Logger returns the package default logger.
func Logger() *slog.Logger {
	return defaultLogger
}

// loggerOr returns l, or the package default when l is nil.
func loggerOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return defaultLogger
}
