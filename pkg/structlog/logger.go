// Package structlog provides a small JSON structured logger meant to be
// injected into library components. The host application owns the logger
// lifecycle; components only receive a *Logger and attach fields.
package structlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
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

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger writes one JSON object per record to the injected writer.
type Logger struct {
	component string
	level     Level
	output    io.Writer
	mu        sync.Mutex
	fields    Fields // base fields attached to every record
	discard   bool
}

// New creates a structured logger for a component. A nil output defaults
// to stdout.
func New(component string, level Level, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		component: component,
		level:     level,
		output:    output,
		fields:    Fields{},
	}
}

// Nop returns a logger that drops every record. Useful as a default when
// no sink is injected.
func Nop() *Logger {
	return &Logger{component: "nop", level: LevelError, output: io.Discard, fields: Fields{}, discard: true}
}

// WithFields returns a logger with additional base fields
func (l *Logger) WithFields(fields Fields) *Logger {
	next := &Logger{
		component: l.component,
		level:     l.level,
		output:    l.output,
		discard:   l.discard,
		fields:    make(Fields, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields Fields) {
	l.log(LevelDebug, message, fields)
}

// Info logs an info message
func (l *Logger) Info(message string, fields Fields) {
	l.log(LevelInfo, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields Fields) {
	l.log(LevelWarn, message, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, fields Fields) {
	l.log(LevelError, message, fields)
}

func (l *Logger) log(level Level, message string, fields Fields) {
	if l.discard || level < l.level {
		return
	}

	record := make(Fields, len(l.fields)+len(fields)+4)
	for k, v := range l.fields {
		record[k] = v
	}
	for k, v := range fields {
		record[k] = v
	}

	record["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	record["level"] = level.String()
	record["component"] = l.component
	record["message"] = message

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := json.NewEncoder(l.output).Encode(record); err != nil {
		fmt.Fprintf(os.Stderr, "LOG_ERROR: failed to encode log: %v\n", err)
	}
}
