package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var (
	levelMu     sync.RWMutex
	levelLoaded bool
	current     LogLevel
)

// ParseLevel converts a level name into a LogLevel. Unknown names yield LevelInfo
// and ok=false.
func ParseLevel(s string) (level LogLevel, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// levelFromEnv reads DEBUG and LOG_LEVEL. DEBUG wins when truthy.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

// GetLevel returns the current log level, loading it from the environment on first use.
func GetLevel() LogLevel {
	levelMu.RLock()
	if levelLoaded {
		defer levelMu.RUnlock()
		return current
	}
	levelMu.RUnlock()

	levelMu.Lock()
	defer levelMu.Unlock()
	if !levelLoaded {
		current = levelFromEnv()
		levelLoaded = true
	}
	return current
}

// SetLevel overrides the level taken from the environment.
func SetLevel(level LogLevel) {
	levelMu.Lock()
	defer levelMu.Unlock()
	current = level
	levelLoaded = true
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func output(level LogLevel, tag, prefix, format string, args ...interface{}) {
	if GetLevel() > level {
		return
	}
	log.Printf("["+tag+"] "+prefix+format, args...)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	output(LevelDebug, "DEBUG", "", format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	output(LevelInfo, "INFO", "", format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	output(LevelWarn, "WARN", "", format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	output(LevelError, "ERROR", "", format, args...)
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Logger writes leveled messages tagged with a component name, e.g.
// "[WARN] views: ledger lookup failed: ...".
type Logger struct {
	prefix string
}

// For returns a Logger for the named component.
func For(component string) *Logger {
	if component == "" {
		return &Logger{}
	}
	return &Logger{prefix: component + ": "}
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	output(LevelDebug, "DEBUG", l.prefix, format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	output(LevelInfo, "INFO", l.prefix, format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	output(LevelWarn, "WARN", l.prefix, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	output(LevelError, "ERROR", l.prefix, format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
