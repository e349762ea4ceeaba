package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/muratoffalex/poegram/internal/config"
)

type logrusLogger struct {
	entry logrus.Ext1FieldLogger
}

func NewLogrusLogger(cfg *config.LoggingConfig) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableQuote:    true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(cfg.Level())
	if err != nil {
		l.WithField("log_level", cfg.Level()).Warn("Unknown log level, falling back to info")
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.WriteInFile && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.WithError(err).Warn("Failed to open log file, writing to stderr only")
		} else {
			l.SetOutput(io.MultiWriter(os.Stderr, file))
		}
	}

	return &logrusLogger{entry: l}
}

func (l *logrusLogger) Trace(args ...any) { l.entry.Trace(args...) }
func (l *logrusLogger) Debug(args ...any) { l.entry.Debug(args...) }
func (l *logrusLogger) Info(args ...any)  { l.entry.Info(args...) }
func (l *logrusLogger) Warn(args ...any)  { l.entry.Warn(args...) }
func (l *logrusLogger) Error(args ...any) { l.entry.Error(args...) }
func (l *logrusLogger) Fatal(args ...any) { l.entry.Fatal(args...) }

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: l.entry.WithError(err)}
}
