package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHandlerFormats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Output: &buf, Format: FormatJSON, Component: ComponentHTTP})
		logger.Info("hello", "k", 1)

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
		}
		if rec[FieldComponent] != ComponentHTTP || rec["msg"] != "hello" {
			t.Errorf("unexpected record %v", rec)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		New(Config{Output: &buf, Format: FormatText}).Info("hello")
		if !strings.Contains(buf.String(), "component=app") {
			t.Errorf("expected default component in %q", buf.String())
		}
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		New(Config{Output: &buf, Format: FormatPretty}).Info("hello")
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected message in %q", buf.String())
		}
	})

	t.Run("level filter", func(t *testing.T) {
		var buf bytes.Buffer
		New(Config{Output: &buf, Format: FormatText, Level: slog.LevelWarn}).Info("dropped")
		if buf.Len() != 0 {
			t.Errorf("info should be filtered at warn level, got %q", buf.String())
		}
	})
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Format: FormatText}).
		With(FieldRequestID, "abc").
		WithComponent(ComponentWorker)
	logger.Info("tick")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Errorf("expected a single worker component in %q", out)
	}
	if !strings.Contains(out, "request_id=abc") {
		t.Errorf("request id lost in %q", out)
	}
	if logger.Component() != ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestFromContextFallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Format: FormatText}))

	sl.LogError(context.Background(), "boom", errors.New("disk full"), OpCreate, nil)
	if !strings.Contains(buf.String(), "error=\"disk full\"") || !strings.Contains(buf.String(), "operation=create") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	req := httptest.NewRequest(http.MethodDelete, "/expenses/1", nil)
	sl.LogHTTPEnd(context.Background(), req, http.StatusNotFound, 3, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("4xx should log at warn: %q", buf.String())
	}
}
