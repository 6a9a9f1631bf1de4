// Package logging builds the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stdout. Production uses JSON lines; anything
// else gets human-readable text. Unknown levels fall back to info.
func New(level string, production bool) *logrus.Logger {
	return newWithOutput(os.Stdout, level, production)
}

func newWithOutput(out io.Writer, level string, production bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if production {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("invalid LOG_LEVEL %q, using info", level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
