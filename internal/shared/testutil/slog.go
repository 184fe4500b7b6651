// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// LogRecord is one captured log entry. Attrs include those added through
// Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record in memory
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]LogRecord
	attrs   []slog.Attr
}

// NewTestLogger returns a logger writing to a fresh LogRecorder
func NewTestLogger() (*slog.Logger, *LogRecorder) {
	h := &LogRecorder{mu: &sync.Mutex{}, records: &[]LogRecord{}}
	return slog.New(h), h
}

// Enabled implements slog.Handler
func (h *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	*h.records = append(*h.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler; the derived handler shares the record buffer
func (h *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &LogRecorder{mu: h.mu, records: h.records, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *LogRecorder) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of everything logged so far
func (h *LogRecorder) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(*h.records))
	copy(out, *h.records)
	return out
}

// Find returns the records at level with the given message
func (h *LogRecorder) Find(level slog.Level, message string) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level && r.Message == message {
			out = append(out, r)
		}
	}
	return out
}

// AssertLogged fails t unless a record at level with message was captured,
// and returns the first match
func AssertLogged(t *testing.T, h *LogRecorder, level slog.Level, message string) LogRecord {
	t.Helper()
	found := h.Find(level, message)
	if !assert.NotEmpty(t, found, "no %s record %q", level, message) {
		return LogRecord{}
	}
	return found[0]
}
