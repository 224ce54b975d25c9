// Package testlog is a small levelled-prefix logger matching the shape
// of quic-go's internal/utils.Logger (spec §2.1): that package is
// internal to the quic-go module and cannot be imported from outside it,
// so this recreates the same Debugf/Errorf/Infof/WithPrefix surface as a
// local adapter, threaded through Session exactly the way
// saitolume-quic-go/http3/client.go threads utils.Logger through client.
package testlog

import (
	"fmt"
	"io"
	"os"
)

// Level mirrors utils.LogLevel's ordering: higher is more verbose.
type Level int

const (
	LevelNothing Level = iota
	LevelError
	LevelInfo
	LevelDebug
)

// Logger is a minimal levelled, prefixed logger.
type Logger struct {
	w      io.Writer
	level  Level
	prefix string
}

// New constructs a Logger writing to w at level, with no prefix.
func New(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level}
}

// DefaultLogger writes to stderr at LevelError, matching utils.DefaultLogger's
// conservative default.
func DefaultLogger() *Logger {
	return New(os.Stderr, LevelError)
}

// NopLogger discards everything; the default for Settings that don't
// configure a logger explicitly.
func NopLogger() *Logger {
	return New(io.Discard, LevelNothing)
}

// WithPrefix returns a copy of l tagged with prefix, the way
// utils.Logger.WithPrefix("h3 client") works.
func (l *Logger) WithPrefix(prefix string) *Logger {
	p := *l
	if l.prefix != "" {
		p.prefix = l.prefix + " " + prefix
	} else {
		p.prefix = prefix
	}
	return &p
}

func (l *Logger) log(level Level, tag, format string, args []interface{}) {
	if l.level < level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		fmt.Fprintf(l.w, "%s %s: %s\n", tag, l.prefix, msg)
	} else {
		fmt.Fprintf(l.w, "%s: %s\n", tag, msg)
	}
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, "ERROR", format, args) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, "INFO", format, args) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, "DEBUG", format, args) }
