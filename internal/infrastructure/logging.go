package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JayshuaGarcia/AgriAssist-Capstone/internal/config"
)

var (
	processLogger     *slog.Logger
	processLoggerOnce sync.Once

	logFile   *os.File
	logFileMu sync.Mutex
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	runIDKey
)

// InitializeLogger builds the JSON process logger from cfg and installs it
// as the slog default. Only the first call configures anything; later calls
// return the same logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	processLoggerOnce.Do(func() {
		processLogger, err = newLogger(cfg, os.Stdout)
		if processLogger != nil {
			slog.SetDefault(processLogger)
		}
	})
	return processLogger, err
}

func newLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	out, err := logOutput(cfg, console)
	if err != nil {
		return nil, err
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: cfg.Development,
		Level:     parseLogLevel(cfg.Level),
	})
	return slog.New(contextHandler{Handler: handler}), nil
}

// logOutput resolves the console|file|both setting; anything else is console
func logOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return console, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	logFileMu.Lock()
	logFile = f
	logFileMu.Unlock()

	if mode == "file" {
		return f, nil
	}
	return io.MultiWriter(console, f), nil
}

// CloseLogFile closes the log file opened by InitializeLogger, if any
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting lets the next InitializeLogger call configure again
func ResetLoggerForTesting() {
	CloseLogFile()
	processLogger = nil
	processLoggerOnce = sync.Once{}
}

// contextHandler copies the correlation IDs found in the context onto every record
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if id := RunID(ctx); id != "" {
		r.AddAttrs(slog.String("run_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}

func parseLogLevel(level string) slog.Level {
	s := strings.ToLower(strings.TrimSpace(level))
	if s == "warning" {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewCorrelationID returns a random UUID v4 used for trace and run IDs
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithTraceID stores the request or invocation trace ID in ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID stored by WithTraceID, or ""
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// WithRunID stores the batch run ID in ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID returns the batch run ID stored by WithRunID, or ""
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// WithComponent tags logger with a component attribute. A nil logger uses
// the slog default.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", component))
}
