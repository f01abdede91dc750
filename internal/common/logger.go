package common

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogLevel represents logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelDebug:
		return "debug"
	default:
		return "info"
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger is the structured logger shared by the converter, server and CLI.
// Logs go to stderr so that workflow YAML written to stdout stays clean.
type Logger struct {
	*slog.Logger
	level  LogLevel
	masker *Masker
}

// NewLogger creates a text logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stderr, level, "text")
}

// NewJSONLogger creates a logger with JSON output
func NewJSONLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stderr, level, "json")
}

// NewColorLogger creates a logger with colorized output; colors are only
// emitted when stderr is a terminal.
func NewColorLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stderr, level, "color")
}

// NewLoggerWithWriter creates a logger for format "text", "json" or "color" writing to w.
func NewLoggerWithWriter(w io.Writer, level LogLevel, format string) *Logger {
	masker := NewMasker()
	opts := &slog.HandlerOptions{
		Level: level.ToSlogLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return maskAttr(masker, a)
		},
	}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "color":
		ch := NewColorHandler(w, &slog.HandlerOptions{Level: opts.Level})
		ch.SetMasker(masker)
		handler = ch
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler), level: level, masker: masker}
}

func maskAttr(m *Masker, a slog.Attr) slog.Attr {
	if m == nil || !m.IsEnabled() {
		return a
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if masked, ok := m.MaskValue(a.Key, a.Value.String()).(string); ok {
			a.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		if m.IsSensitiveKey(a.Key) {
			a.Value = slog.StringValue(MaskedValue)
		} else if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(m.MaskString(err.Error()))
		}
	default:
		if m.IsSensitiveKey(a.Key) {
			a.Value = slog.StringValue(MaskedValue)
		}
	}
	return a
}

// Level returns the current log level
func (l *Logger) Level() LogLevel {
	return l.level
}

// EnableMasking toggles masking of sensitive values for this logger.
func (l *Logger) EnableMasking(enabled bool) {
	if l.masker != nil {
		l.masker.SetEnabled(enabled)
	}
}

// Masker returns the masker applied to this logger's attributes.
func (l *Logger) Masker() *Masker {
	return l.masker
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level, masker: l.masker}
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithStage returns a logger with Jenkins stage context
func (l *Logger) WithStage(stage string) *Logger {
	return l.with("stage", stage)
}

// WithFile returns a logger with input file context
func (l *Logger) WithFile(path string) *Logger {
	return l.with("file", path)
}

// WithConversion returns a logger with conversion id context
func (l *Logger) WithConversion(id string) *Logger {
	return l.with("conversion", id)
}

// WithStore returns a logger with store context
func (l *Logger) WithStore(storeType string) *Logger {
	return l.with("store", storeType)
}

// WithRequest returns a logger with HTTP request context
func (l *Logger) WithRequest(method, url string) *Logger {
	return l.with("method", method, "url", url)
}

type loggerKey struct{}

// IntoContext attaches logger to ctx.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or the default logger.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return GetLogger()
}

// Global default logger instance
var defaultLogger = NewLogger(LogLevelInfo)

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger *Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// GetLogger returns the default logger
func GetLogger() *Logger {
	return defaultLogger
}

// LogError logs an error with context
func LogError(msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	defaultLogger.Error(msg, args...)
}

// LogInfo logs informational message
func LogInfo(msg string, attrs ...any) {
	defaultLogger.Info(msg, attrs...)
}

// LogDebug logs debug message
func LogDebug(msg string, attrs ...any) {
	defaultLogger.Debug(msg, attrs...)
}

// LogWarn logs warning message
func LogWarn(msg string, attrs ...any) {
	defaultLogger.Warn(msg, attrs...)
}
