// =============================================================================
// OC Harvester - Logger
// =============================================================================
//
// The harvester is a long-running batch tool that an operator watches in a
// terminal, so every request URL, retry and per-day summary is printed.
// When a log file is configured the same lines are appended there too.
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Logger is the logging interface used across the harvester.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Anything else is treated as info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// StdLogger writes "[LEVEL] message" lines through the standard log package.
type StdLogger struct {
	level Level
	out   *log.Logger
}

// New creates a StdLogger writing to all of the given writers.
func New(level Level, writers ...io.Writer) *StdLogger {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	return &StdLogger{
		level: level,
		out:   log.New(io.MultiWriter(writers...), "", log.LstdFlags),
	}
}

// Open creates a logger that writes to stdout and, when logFile is not empty,
// appends to logFile as well. The returned closer must be closed by the
// caller; it is a no-op when no file was opened.
func Open(logFile string, level Level) (*StdLogger, io.Closer, error) {
	if logFile == "" {
		return New(level, os.Stdout), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(level, os.Stdout, f), f, nil
}

func (l *StdLogger) logf(level Level, tag, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.out.Printf("["+tag+"] "+msg, args...)
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.logf(LevelDebug, "DEBUG", msg, args...) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.logf(LevelInfo, "INFO", msg, args...) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.logf(LevelWarn, "WARN", msg, args...) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.logf(LevelError, "ERROR", msg, args...) }

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
