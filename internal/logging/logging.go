// Package logging provides a small levelled logger on top of the standard log package.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Level is a log severity threshold.
type Level int32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// threshold is shared by every Logger so that --verbose applies process-wide.
var threshold atomic.Int32

func init() {
	threshold.Store(int32(LevelDebug))
}

// SetLevel sets the minimum level written by all loggers.
func SetLevel(l Level) {
	threshold.Store(int32(l))
}

// Enabled reports whether messages at level l are written.
func Enabled(l Level) bool {
	return int32(l) >= threshold.Load()
}

// Logger writes "LEVEL Component: message" lines.
type Logger struct {
	component string
	out       *log.Logger
}

// New creates a logger for a component writing to stderr.
func New(component string) *Logger {
	return NewWithWriter(component, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(component string, w io.Writer) *Logger {
	return &Logger{
		component: component,
		out:       log.New(w, "", log.LstdFlags),
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	return NewWithWriter("", io.Discard)
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || !Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.out.Printf("%-5s %s: %s", level, l.component, msg)
		return
	}
	l.out.Printf("%-5s %s", level, msg)
}

func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
