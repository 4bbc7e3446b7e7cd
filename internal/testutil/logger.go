package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// NopLogger returns a logger that discards all output.
// Use this in tests to avoid log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogRecorder collects JSON log lines written by a logger from CaptureLogger
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Entries decodes every recorded line. Lines that fail to decode are skipped.
func (r *LogRecorder) Entries() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []map[string]any
	for _, line := range bytes.Split(r.buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Messages returns the msg field of every recorded entry, in order
func (r *LogRecorder) Messages() []string {
	entries := r.Entries()
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		if msg, ok := e[slog.MessageKey].(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// CaptureLogger returns a debug-level JSON logger and the recorder it writes to
func CaptureLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	return slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}
