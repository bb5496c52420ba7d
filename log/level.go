package log

import "gopkg.in/Sirupsen/logrus.v0"

// Level mirrors logrus' severity levels so callers never need to import
// logrus directly.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l Level) logrus() logrus.Level {
	return logrus.Level(l)
}

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}
