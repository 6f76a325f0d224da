package log

import (
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// SetLogFile set log file path and rotation (rotate and maxAge in hours)
func SetLogFile(logFile string, rotation, maxAge uint64) {
	if logFile == "" {
		return
	}
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d%H",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithRotationTime(time.Duration(rotation)*time.Hour),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*time.Hour),
	)
	if err != nil {
		logrus.WithError(err).Fatal("set log file failed")
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		ForceQuote:      true,
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableSorting:  true,
	})
	logrus.SetOutput(writer)
}
