package server

import (
	"log"

	"github.com/sirupsen/logrus"
)

// newServerErrorLog routes net/http's internal errors through logrus.
func newServerErrorLog(l *logrus.Logger) *log.Logger {
	return log.New(l.WriterLevel(logrus.WarnLevel), "", 0)
}
