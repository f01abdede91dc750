package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level LogLevel
		name  string
		slog  slog.Level
	}{
		{LogLevelError, "error", slog.LevelError},
		{LogLevelWarn, "warn", slog.LevelWarn},
		{LogLevelInfo, "info", slog.LevelInfo},
		{LogLevelDebug, "debug", slog.LevelDebug},
		{LogLevel(42), "info", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.level.ToSlogLevel(); got != tt.slog {
			t.Errorf("ToSlogLevel() = %v, want %v", got, tt.slog)
		}
	}
}

func TestNewLoggerWithWriter_Formats(t *testing.T) {
	for _, format := range []string{"text", "json", "color"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(&buf, LogLevelInfo, format)
			logger.WithComponent("convert").WithStage("Build").Info("stage composed", "steps", 3)
			out := buf.String()
			if !strings.Contains(out, "stage composed") || !strings.Contains(out, "Build") {
				t.Fatalf("unexpected output: %q", out)
			}
		})
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LogLevelWarn, "text")
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output = %q", buf.String())
	}
	if logger.Level() != LogLevelWarn {
		t.Fatalf("Level() = %v", logger.Level())
	}
}

func TestLogger_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LogLevelInfo, "json")
	logger.Info("configured",
		"jwt_secret", "s3cr3t",
		"dsn", "postgres://app:hunter2@db:5432/j2g",
		"error", errors.New(`API_KEY = "abc"`),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if rec["jwt_secret"] != MaskedValue {
		t.Errorf("jwt_secret = %v", rec["jwt_secret"])
	}
	if dsn, _ := rec["dsn"].(string); strings.Contains(dsn, "hunter2") {
		t.Errorf("dsn leaked password: %v", dsn)
	}
	if e, _ := rec["error"].(string); strings.Contains(e, "abc") {
		t.Errorf("error leaked value: %v", e)
	}

	buf.Reset()
	logger.EnableMasking(false)
	logger.Info("configured", "jwt_secret", "s3cr3t")
	if !strings.Contains(buf.String(), "s3cr3t") {
		t.Fatalf("masking disabled but value hidden: %q", buf.String())
	}
}

func TestLogger_Context(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, LogLevelInfo, "text").WithConversion("abc-123")
	ctx := IntoContext(context.Background(), logger)
	FromContext(ctx).Info("stored")
	if !strings.Contains(buf.String(), "conversion=abc-123") {
		t.Fatalf("output = %q", buf.String())
	}
	if FromContext(context.Background()) != GetLogger() {
		t.Fatal("empty context should yield the default logger")
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := GetLogger()
	defer SetDefaultLogger(orig)

	var buf bytes.Buffer
	SetDefaultLogger(NewLoggerWithWriter(&buf, LogLevelDebug, "text"))
	LogInfo("info msg", "k", "v")
	LogWarn("warn msg")
	LogDebug("debug msg")
	LogError("error msg", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{"info msg", "warn msg", "debug msg", "error msg", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}

	SetDefaultLogger(nil)
	if GetLogger() == nil {
		t.Fatal("nil must not replace the default logger")
	}
}
