package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		emit  func(Logger)
		want  bool
	}{
		{"info logs info", "info", func(l Logger) { l.Info("msg") }, true},
		{"info drops debug", "info", func(l Logger) { l.Debug("msg") }, false},
		{"debug logs debug", "debug", func(l Logger) { l.Debug("msg") }, true},
		{"error drops warn", "error", func(l Logger) { l.Warn("msg") }, false},
		{"error logs error", "error", func(l Logger) { l.Error("msg") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.emit(NewLogger(Config{Level: tt.level, Format: "json", Output: buf}))
			if got := strings.Contains(buf.String(), "msg"); got != tt.want {
				t.Errorf("expected presence=%v, output=%s", tt.want, buf.String())
			}
		})
	}
}

func TestLoggerFormats(t *testing.T) {
	buf := &bytes.Buffer{}
	NewLogger(Config{Level: "info", Format: "json", Output: buf}).Info("listed", "resource", "products", "total", 12)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "listed" || entry["resource"] != "products" || entry["total"] != float64(12) {
		t.Errorf("unexpected entry %v", entry)
	}

	buf.Reset()
	NewLogger(Config{Level: "info", Format: "TEXT", Output: buf}).Info("listed", "resource", "orders")
	if !strings.Contains(buf.String(), "resource=orders") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(Config{Level: "debug", Format: "json", Output: buf})

	ctx := WithResource(WithRequestID(context.Background(), "req-42"), "customers")
	logger.WarnContext(ctx, "slow list")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["request_id"] != "req-42" || entry["resource"] != "customers" {
		t.Errorf("missing context fields: %v", entry)
	}

	if WithRequestID(ctx, "") != ctx || WithResource(ctx, "") != ctx {
		t.Error("empty values should not wrap the context")
	}
	//nolint:staticcheck // nil context is handled explicitly
	if RequestIDFromContext(nil) != "" || ResourceFromContext(nil) != "" {
		t.Error("expected empty values for nil context")
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(Config{Level: "info", Format: "json", Output: buf})

	if FromContext(context.Background(), base) != base {
		t.Error("expected the same logger when the context carries nothing")
	}
	FromContext(WithRequestID(context.Background(), "abc"), base).WithComponent("http").Info("hello")
	out := buf.String()
	if !strings.Contains(out, `"request_id":"abc"`) || !strings.Contains(out, `"component":"http"`) {
		t.Errorf("unexpected output %s", out)
	}
	if FromContext(context.Background(), nil) == nil {
		t.Error("expected a default logger")
	}
}

func TestNewLoggerFromSlog(t *testing.T) {
	buf := &bytes.Buffer{}
	sl := slog.New(slog.NewJSONHandler(buf, nil))
	l := NewLoggerFromSlog(sl)
	if l.Slog() != sl {
		t.Error("expected wrapped slog logger")
	}
	if NewLoggerFromSlog(nil).Slog() == nil {
		t.Error("expected default slog logger")
	}
	Discard().Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PHARMADMIN_LOG_LEVEL", "debug")
	t.Setenv("PHARMADMIN_LOG_FORMAT", "text")
	cfg := ConfigFromEnv()
	if cfg.Level != "debug" || cfg.Format != "text" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
