package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogSplitHook directs matched levels to its configured output.
type LogSplitHook struct {
	output io.Writer
	levels []logrus.Level
}

// splitHooks sends problems to stderr and the chatter enabled by --debug to
// stdout. The root logger's own output is discarded.
func splitHooks(stdout, stderr io.Writer) []logrus.Hook {
	return []logrus.Hook{
		&LogSplitHook{stdout, []logrus.Level{
			logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel}},
		&LogSplitHook{stderr, []logrus.Level{
			logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}},
	}
}

// Fire is invoked when logrus tries to log any message.
func (hook *LogSplitHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}
	_, err = hook.output.Write(line)
	return err
}

// Levels returns the log levels this hook is being applied to.
func (hook *LogSplitHook) Levels() []logrus.Level {
	return hook.levels
}
