// Package logging sets up the structured logger used throughout the
// receiver core. Grounded on _examples/jrockway-beaglebone-gps-clock, the
// one pack repo with a real structured-logging dependency; gnssgo itself
// only uses fmt/log.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger configured for the receiver: JSON output on
// stdout, level from the level string (defaulting to "info" on a parse
// failure, matching spec.md §7's "alerts appear in the log at severity
// INFO").
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
