package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "alert-api.log"

type Logger struct {
	entry *logrus.Entry
	file  io.Closer
}

// New logs JSON to stdout and, when dir is non-empty, to a rotating file in dir.
func New(dir, level string) (*Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	base := logrus.New()
	base.SetLevel(lvl)
	base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})

	l := &Logger{entry: logrus.NewEntry(base)}
	if dir == "" {
		base.SetOutput(os.Stdout)
		return l, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs folder failed: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	}
	// Output to both file and console
	base.SetOutput(io.MultiWriter(os.Stdout, rotator))
	l.file = rotator
	return l, nil
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(w io.Writer) *Logger {
	base := logrus.New()
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetOutput(w)
	return &Logger{entry: logrus.NewEntry(base)}
}

// WithRequest returns a logger whose lines carry request_id.
func (l *Logger) WithRequest(requestID string) *Logger {
	return &Logger{entry: l.entry.WithField("request_id", requestID)}
}

func (l *Logger) Debugf(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *Logger) Infof(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *Logger) Warnf(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

func (l *Logger) Close() {
	if l.file == nil {
		return
	}
	_ = l.file.Close()
}
