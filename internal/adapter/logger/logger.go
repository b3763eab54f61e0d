package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// SetLoggerToStructured switches the standard logger to JSON on stderr, also
// appending to filePath when set. The returned func closes the log file.
func SetLoggerToStructured(level logrus.Level, filePath string) func() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(level)

	if filePath == "" {
		logrus.SetOutput(os.Stderr)
		return func() {}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.WithError(err).Error("Could not create file for logging")
		return func() {}
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, file))
	return func() {
		logrus.SetOutput(os.Stderr)
		_ = file.Close()
	}
}

// Level resolves the configured level name; verbose forces debug.
func Level(name string, verbose bool) logrus.Level {
	if verbose {
		return logrus.DebugLevel
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
