package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNewLevelAndFormat(t *testing.T) {
	l := New(LoggingConfig{Level: "debug", Format: "json"})
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", l.Formatter)
	}

	l = New(LoggingConfig{Level: "nonsense"})
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %v", l.GetLevel())
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "abc")
	if got := TraceIDFromContext(ctx); got != "abc" {
		t.Fatalf("trace id = %q, want abc", got)
	}
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty trace id, got %q", got)
	}
	if NewTraceID() == NewTraceID() {
		t.Fatal("trace ids should be unique")
	}
}

func TestLogRequestFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(LoggingConfig{Level: "info", Format: "json"})
	l.SetOutput(&buf)
	l.name = "heroapps"

	ctx := WithTraceID(context.Background(), "trace-1")
	l.LogRequest(ctx, http.MethodGet, "/apps", "localhost", http.StatusInternalServerError, 5*time.Millisecond)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["level"] != "error" {
		t.Errorf("level = %v, want error", line["level"])
	}
	if line["trace_id"] != "trace-1" {
		t.Errorf("trace_id = %v", line["trace_id"])
	}
	if line["service"] != "heroapps" {
		t.Errorf("service = %v", line["service"])
	}
	if line["msg"] != "GET - /apps from localhost" {
		t.Errorf("msg = %v", line["msg"])
	}
}

func TestFileOutputRotates(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "gateway")
	l := New(LoggingConfig{Level: "info", Format: "text", Output: "file", FilePrefix: prefix})

	rotating, ok := l.Out.(*lumberjack.Logger)
	if !ok {
		t.Fatalf("expected rotating file writer, got %T", l.Out)
	}
	defer rotating.Close()

	l.Info("written to file")
	data, err := os.ReadFile(prefix + ".log")
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log file missing entry: %s", data)
	}
}
