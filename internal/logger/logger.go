package logger

// Fields are structured key/value pairs attached to a log entry.
type Fields map[string]any

// Logger is the logging facade used across the bot. Handlers receive it through
// the DI container so tests can swap in TestLogger.
type Logger interface {
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}

// Event returns a logger annotated with the identifiers of an inbound chat event.
func Event(l Logger, chatID, userID int64, kind string) Logger {
	return l.WithFields(Fields{
		"chat_id": chatID,
		"user_id": userID,
		"event":   kind,
	})
}
