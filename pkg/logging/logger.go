package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
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

// Logger writes timestamped, leveled lines to a console stream. It backs
// the monitor's Reporter interface, so every user-visible progress or
// diagnostic line flows through here.
type Logger struct {
	level      Level
	jsonFormat bool
	output     io.Writer
}

// New creates a console logger
func New(level Level, jsonFormat bool) *Logger {
	return &Logger{
		level:      level,
		jsonFormat: jsonFormat,
		output:     os.Stderr,
	}
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func (l *Logger) log(level Level, message string, fields map[string]any) {
	if level < l.level {
		return
	}

	if l.jsonFormat {
		entry := logEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Level:     level.String(),
			Message:   message,
			Fields:    fields,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.output, "failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Fprintln(l.output, string(data))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.output, "[%s] %s: %s", timestamp, level.String(), message)
	if len(fields) > 0 {
		fmt.Fprintf(l.output, " %v", fields)
	}
	fmt.Fprintln(l.output)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.log(DEBUG, message, first(fields))
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]any) {
	l.log(INFO, message, first(fields))
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.log(WARN, message, first(fields))
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]any) {
	l.log(ERROR, message, first(fields))
}

func first(fields []map[string]any) map[string]any {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// ParseLevel parses a log level string
func ParseLevel(level string) Level {
	switch level {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	default:
		return INFO
	}
}
