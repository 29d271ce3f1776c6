package alertbus

import (
	"github.com/sirupsen/logrus"

	"gnssspoof/pkg/navdata"
)

// LogSink writes every alert to a structured logger at Info severity with
// the case id and description as fields, per spec.md §7's user-visible
// behavior ("Alerts appear in the log at severity INFO with a structured
// case id and a free-text description").
type LogSink struct {
	Logger *logrus.Logger
}

func NewLogSink(logger *logrus.Logger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{Logger: logger}
}

func (s *LogSink) Handle(alert navdata.SpoofingAlert) {
	s.Logger.WithFields(logrus.Fields{
		"case_id":       alert.CaseID,
		"description":   alert.Description,
		"wall_clock_ms": alert.WallClockMs,
	}).Info(alert.Description)
}
