package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log line with its attributes flattened.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogSink collects records from every logger derived from NewTestLogger.
type LogSink struct {
	mu      sync.Mutex
	records []LogRecord
}

type sinkHandler struct {
	sink  *LogSink
	attrs []slog.Attr
	t     testing.TB
}

// NewTestLogger returns a logger that captures every level and echoes each
// record to t.Log, plus the sink holding the captured records.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogSink) {
	sink := &LogSink{}
	return slog.New(&sinkHandler{sink: sink, t: t}), sink
}

func (h *sinkHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *sinkHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.sink.mu.Lock()
	h.sink.records = append(h.sink.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.sink.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &sinkHandler{sink: h.sink, attrs: merged, t: h.t}
}

// WithGroup flattens groups.
func (h *sinkHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of the captured records.
func (s *LogSink) Records() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogRecord(nil), s.records...)
}

// Count returns the number of captured records.
func (s *LogSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Find returns the first record at level whose message contains msg.
func (s *LogSink) Find(level slog.Level, msg string) (LogRecord, bool) {
	for _, r := range s.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// ContainsMessage reports whether any record, at any level, contains msg.
func (s *LogSink) ContainsMessage(msg string) bool {
	for _, r := range s.Records() {
		if strings.Contains(r.Message, msg) {
			return true
		}
	}
	return false
}
