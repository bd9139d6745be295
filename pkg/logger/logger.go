// Package logger provides the structured logger shared by the gateway packages.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for file output.
const (
	fileMaxSizeMB  = 100
	fileMaxAgeDays = 7
	fileMaxBackups = 3
)

// LoggingConfig selects level, encoding and destination of log output.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePrefix string `yaml:"file_prefix"`
}

// Logger wraps a logrus logger with request-aware helpers.
type Logger struct {
	*logrus.Logger
	name string
}

type traceIDKey struct{}

// New creates a logger from cfg. Unknown levels fall back to info and unknown
// outputs fall back to stdout.
func New(cfg LoggingConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	l.SetOutput(openOutput(cfg))
	return &Logger{Logger: l}
}

// NewDefault returns a text logger at info level tagged with the given name.
func NewDefault(name string) *Logger {
	l := New(LoggingConfig{Level: "info", Format: "text", Output: "stdout"})
	l.name = name
	return l
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// Name returns the logger's service tag.
func (l *Logger) Name() string {
	return l.name
}

// WithContext returns an entry carrying the trace ID stored in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(l.Logger)
	if l.name != "" {
		entry = entry.WithField("service", l.name)
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

// LogRequest writes one line per served HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path, host string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"host":        host,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})

	msg := fmt.Sprintf("%s - %s from %s", method, path, host)
	switch {
	case status >= 500:
		entry.Error(msg)
	case status >= 400:
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}

// NewTraceID returns a fresh random trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores traceID in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

func openOutput(cfg LoggingConfig) io.Writer {
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "stderr":
		return os.Stderr
	case "file":
		prefix := cfg.FilePrefix
		if prefix == "" {
			prefix = "heroapps"
		}
		return &lumberjack.Logger{
			Filename:   filepath.Clean(prefix + ".log"),
			MaxSize:    fileMaxSizeMB,
			MaxAge:     fileMaxAgeDays,
			MaxBackups: fileMaxBackups,
		}
	default:
		return os.Stdout
	}
}
