// Package applog provides the daemon's structured logger. A single Logger
// is constructed in cmd/typetrace-backend and passed down to every
// component that needs to log; nothing here is package-global.
package applog

import (
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with the run-correlation field every line carries.
type Logger struct {
	entry *logrus.Entry
	runID string
}

// New builds a Logger writing informational lines to standard error, at
// debug level iff debug is true.
func New(debug bool) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}

	runID := uuid.New().String()
	return &Logger{
		entry: base.WithField("run_id", runID),
		runID: runID,
	}
}

// RunID returns the per-process correlation id stamped on every line.
func (l *Logger) RunID() string {
	return l.runID
}

// With returns a derived logger carrying the additional fields.
func (l *Logger) With(fields logrus.Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields), runID: l.runID}
}

func (l *Logger) Debug(args ...any) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...any)  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...any)  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...any) { l.entry.Error(args...) }

func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
