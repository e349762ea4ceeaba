package logger

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// TestLogger records entries in memory. Loggers derived through WithField(s)
// share the same entry store.
type TestLogger struct {
	store  *entryStore
	fields Fields
}

type entryStore struct {
	mu      sync.RWMutex
	entries []TestLogEntry
}

type TestLogEntry struct {
	Level   string
	Message string
	Fields  Fields
}

func NewTestLogger() *TestLogger {
	return &TestLogger{store: &entryStore{}, fields: Fields{}}
}

func (l *TestLogger) record(level string, args ...any) {
	fields := make(Fields, len(l.fields))
	maps.Copy(fields, l.fields)

	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = append(l.store.entries, TestLogEntry{
		Level:   level,
		Message: fmt.Sprint(args...),
		Fields:  fields,
	})
}

func (l *TestLogger) Trace(args ...any) { l.record("trace", args...) }
func (l *TestLogger) Debug(args ...any) { l.record("debug", args...) }
func (l *TestLogger) Info(args ...any)  { l.record("info", args...) }
func (l *TestLogger) Warn(args ...any)  { l.record("warn", args...) }
func (l *TestLogger) Error(args ...any) { l.record("error", args...) }
func (l *TestLogger) Fatal(args ...any) { l.record("fatal", args...) }

func (l *TestLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	maps.Copy(merged, l.fields)
	maps.Copy(merged, fields)
	return &TestLogger{store: l.store, fields: merged}
}

func (l *TestLogger) WithField(key string, value any) Logger {
	return l.WithFields(Fields{key: value})
}

func (l *TestLogger) WithError(err error) Logger {
	return l.WithFields(Fields{"error": err})
}

func (l *TestLogger) Entries() []TestLogEntry {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return append([]TestLogEntry(nil), l.store.entries...)
}

func (l *TestLogger) HasEntry(level, message string) bool {
	for _, entry := range l.Entries() {
		if entry.Level == level && entry.Message == message {
			return true
		}
	}
	return false
}

func (l *TestLogger) HasEntryContaining(level, substr string) bool {
	for _, entry := range l.Entries() {
		if entry.Level == level && strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}

func (l *TestLogger) CountLevel(level string) int {
	n := 0
	for _, entry := range l.Entries() {
		if entry.Level == level {
			n++
		}
	}
	return n
}

func (l *TestLogger) Clear() {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = nil
}
