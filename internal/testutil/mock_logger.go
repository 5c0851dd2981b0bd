// Package testutil holds test doubles shared by the service and CLI tests.
package testutil

import (
	"sync"

	"github.com/turtacn/smiles-algebra/internal/infrastructure/monitoring/logging"
)

// LogEntry is one call recorded by MockLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (e LogEntry) Field(key string) (interface{}, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MockLogger records every entry. Children created by With and Named share
// the parent's record and prepend their fields.
type MockLogger struct {
	rec    *record
	prefix []logging.Field
}

type record struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewMockLogger returns an empty recorder.
func NewMockLogger() *MockLogger {
	return &MockLogger{rec: &record{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.prefix)+len(fields))
	all = append(all, m.prefix...)
	all = append(all, fields...)
	m.rec.mu.Lock()
	m.rec.entries = append(m.rec.entries, LogEntry{Level: level, Message: msg, Fields: all})
	m.rec.mu.Unlock()
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	prefix := append(append([]logging.Field{}, m.prefix...), fields...)
	return &MockLogger{rec: m.rec, prefix: prefix}
}

func (m *MockLogger) Named(string) logging.Logger { return m }

func (m *MockLogger) Sync() error { return nil }

// Entries returns a copy of everything logged so far.
func (m *MockLogger) Entries() []LogEntry {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	out := make([]LogEntry, len(m.rec.entries))
	copy(out, m.rec.entries)
	return out
}

// Find returns the first entry with the given level and message.
func (m *MockLogger) Find(level, msg string) (LogEntry, bool) {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

// HasMessage reports whether Find would succeed.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Count returns the number of entries at level.
func (m *MockLogger) Count(level string) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
