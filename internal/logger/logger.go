package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const defaultLevel = logrus.InfoLevel

// Logger wraps a logrus logger so packages don't depend on logrus directly
type Logger struct {
	*logrus.Logger
}

// New creates a new logger writing to stdout
func New() *Logger {
	return NewWriter(os.Stdout)
}

// NewWriter creates a new logger that writes to the provided writer
func NewWriter(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(defaultLevel)
	l.SetFormatter(&logrus.TextFormatter{
		PadLevelText:    true,
		FullTimestamp:   true,
		TimestampFormat: "01-02|15:04:05.000",
	})
	return &Logger{Logger: l}
}

// SetVerbose switches debug logging on or off
func (l *Logger) SetVerbose(verbose bool) {
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(defaultLevel)
	}
}

// ParseLevel sets the level from a string, falling back to the default
func (l *Logger) ParseLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = defaultLevel
	}
	l.SetLevel(parsed)
}
