// Package logging provides structured logging for lifedesk.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color used for the level tag.
func (l Level) Color() string {
	switch l {
	case DEBUG:
		return "\033[36m" // Cyan
	case INFO:
		return "\033[32m" // Green
	case WARN:
		return "\033[33m" // Yellow
	case ERROR:
		return "\033[31m" // Red
	default:
		return "\033[0m"
	}
}

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Logger is a structured logger. Derived loggers share the parent's output
// and lock but carry their own fields.
type Logger struct {
	core   *sink
	fields map[string]interface{}
}

type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	color  bool
}

var defaultLogger = &Logger{
	core:   &sink{level: INFO, output: os.Stdout, color: isTerminal(os.Stdout)},
	fields: map[string]interface{}{},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	defaultLogger.core.mu.Lock()
	defaultLogger.core.level = level
	defaultLogger.core.mu.Unlock()
}

// GetLevel returns the global log level
func GetLevel() Level {
	defaultLogger.core.mu.Lock()
	defer defaultLogger.core.mu.Unlock()
	return defaultLogger.core.level
}

// SetOutput sets the output writer. Color is enabled only for terminals.
func SetOutput(w io.Writer) {
	defaultLogger.core.mu.Lock()
	defaultLogger.core.output = w
	defaultLogger.core.color = isTerminal(w)
	defaultLogger.core.mu.Unlock()
}

// WithField returns a logger with a field added
func WithField(key string, value interface{}) *Logger {
	return defaultLogger.WithField(key, value)
}

// WithFields returns a logger with multiple fields added
func WithFields(fields map[string]interface{}) *Logger {
	return defaultLogger.WithFields(fields)
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields adds multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{core: l.core, fields: merged}
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if level < l.core.level {
		return
	}

	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}

	// Fields in key order so output is stable
	var fieldsStr strings.Builder
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldsStr.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&fieldsStr, " %s=%v", k, l.fields[k])
		}
	}

	tag := "[" + level.String() + "]"
	if l.core.color {
		tag = level.Color() + tag + "\033[0m"
	}

	fmt.Fprintf(l.core.output, "%s %s %s%s\n",
		time.Now().Format("15:04:05"), tag, formatted, fieldsStr.String())
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	defaultLogger.log(DEBUG, msg, args...)
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	defaultLogger.log(INFO, msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	defaultLogger.log(WARN, msg, args...)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	defaultLogger.log(ERROR, msg, args...)
}

// Logger methods
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(ERROR, msg, args...) }
