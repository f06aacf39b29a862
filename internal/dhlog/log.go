// Package dhlog configures the structured logger the CLI and pipeline
// workers write lifecycle and error messages to.
package dhlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text-formatted logger writing to stderr, matching the
// terse, timestamped lines this tool's progress bar shares the terminal
// with.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

// WithWorker tags a log entry with the worker id generating it.
func WithWorker(log *logrus.Logger, workerID int, runID string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"worker": workerID, "run": runID})
}
