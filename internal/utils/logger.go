package utils

import (
	"fmt"
	"log"
	"os"
)

// Logger writes run diagnostics to a log file. A nil *Logger is a no-op so
// callers don't guard every call site.
type Logger struct {
	info *log.Logger
	err  *log.Logger
	file *os.File
}

// NewLogger opens path for appending. An empty path returns a nil no-op
// logger.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &Logger{
		info: log.New(f, "[INFO] ", log.LstdFlags),
		err:  log.New(f, "[ERROR] ", log.LstdFlags),
		file: f,
	}, nil
}

func (l *Logger) Infof(format string, args ...any) {
	if l == nil {
		return
	}
	l.info.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.err.Printf(format, args...)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}
