package internal

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger provides leveled logging with a per-component prefix. It wraps the
// standard library logger so output interleaves cleanly with gin's.
type Logger struct {
	level  LogLevel
	logger *log.Logger
	prefix string
}

// NewLogger creates a logger writing to w.
func NewLogger(level LogLevel, prefix string, w io.Writer) *Logger {
	if prefix != "" && !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
		prefix: prefix,
	}
}

// Component returns a child logger sharing the level but with its own prefix.
// Used so the scanner, watcher and monitor tag their own lines.
func (l *Logger) Component(name string) *Logger {
	return &Logger{
		level:  l.level,
		logger: l.logger,
		prefix: "[" + name + "] ",
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.level
}

func (l *Logger) format(level LogLevel, format string, args ...interface{}) string {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return fmt.Sprintf("[%s] %s%s", level.String(), l.prefix, msg)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logger.Print(l.format(DEBUG, format, args...))
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logger.Print(l.format(INFO, format, args...))
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logger.Print(l.format(WARN, format, args...))
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logger.Print(l.format(ERROR, format, args...))
	}
}

// Fatal logs and exits.
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.logger.Fatal(l.format(FATAL, format, args...))
}

// ParseLogLevel parses a level name, defaulting to INFO.
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// DefaultLogger is what main hands out when no writer override is needed.
func DefaultLogger(levelStr string) *Logger {
	return NewLogger(ParseLogLevel(levelStr), "", os.Stdout)
}
