// Package logging provides structured logging with secret redaction for ccclogin.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

// Log severity levels.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for log entries.
type LogFormat string

// Log output formats.
const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON LogFormat = "json"
	// FormatHuman outputs logs in human-readable format.
	FormatHuman LogFormat = "human"
)

var levelOrder = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelOrder[level]; !ok {
		return "", fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", s)
	}
	return level, nil
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (LogFormat, error) {
	switch format := LogFormat(strings.ToLower(strings.TrimSpace(s))); format {
	case FormatJSON, FormatHuman:
		return format, nil
	default:
		return "", fmt.Errorf("invalid log format '%s': must be 'json' or 'human'", s)
	}
}

// Logger provides structured logging with secret redaction.
type Logger struct {
	level    LogLevel
	format   LogFormat
	redactor *Redactor
	out      io.Writer
	errOut   io.Writer
	mu       sync.Mutex
}

// logEntry represents a single log entry in JSON format.
type logEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a Logger that writes to stderr. Stdout is left to command output.
func New(level LogLevel, format LogFormat) *Logger {
	return &Logger{
		level:    level,
		format:   format,
		redactor: NewRedactor(),
		out:      os.Stderr,
		errOut:   os.Stderr,
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	l := New(LevelError, FormatJSON)
	l.SetOutput(io.Discard, io.Discard)
	return l
}

// SetOutput sets custom output writers. Error entries go to errOut.
func (l *Logger) SetOutput(out, errOut io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
	l.errOut = errOut
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, mergeFields(fields...))
}

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, mergeFields(fields...))
}

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(LevelWarn, msg, mergeFields(fields...))
}

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	l.log(LevelError, msg, mergeFields(fields...))
}

func (l *Logger) log(level LogLevel, msg string, fields map[string]any) {
	if levelOrder[level] < levelOrder[l.level] {
		return
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   msg,
		Fields:    l.redactor.RedactFields(fields),
	}

	var output string
	if l.format == FormatJSON {
		output = formatJSON(entry)
	} else {
		output = formatHuman(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.out
	if level == LevelError {
		w = l.errOut
	}
	_, _ = io.WriteString(w, output)
}

func formatJSON(entry logEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"timestamp":"%s","level":"error","message":"failed to marshal log entry: %s"}`+"\n",
			time.Now().UTC().Format(time.RFC3339), err.Error())
	}
	return string(data) + "\n"
}

func formatHuman(entry logEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", entry.Timestamp, entry.Level, entry.Message)

	// Sorted so that output is stable across runs.
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	b.WriteString("\n")
	return b.String()
}

func mergeFields(fields ...map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	merged := make(map[string]any)
	for _, f := range fields {
		maps.Copy(merged, f)
	}
	return merged
}

// WithFields creates a logger that adds fields to every entry.
func (l *Logger) WithFields(fields map[string]any) *ContextLogger {
	return &ContextLogger{
		logger: l,
		fields: fields,
	}
}

// ContextLogger wraps a Logger with context-specific fields.
type ContextLogger struct {
	logger *Logger
	fields map[string]any
}

// Debug logs a debug-level message with context fields.
func (cl *ContextLogger) Debug(msg string, fields ...map[string]any) {
	cl.logger.Debug(msg, cl.merge(fields))
}

// Info logs an info-level message with context fields.
func (cl *ContextLogger) Info(msg string, fields ...map[string]any) {
	cl.logger.Info(msg, cl.merge(fields))
}

// Warn logs a warn-level message with context fields.
func (cl *ContextLogger) Warn(msg string, fields ...map[string]any) {
	cl.logger.Warn(msg, cl.merge(fields))
}

// Error logs an error-level message with context fields.
func (cl *ContextLogger) Error(msg string, fields ...map[string]any) {
	cl.logger.Error(msg, cl.merge(fields))
}

func (cl *ContextLogger) merge(fields []map[string]any) map[string]any {
	return mergeFields(append([]map[string]any{cl.fields}, fields...)...)
}
