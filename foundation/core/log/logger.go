// File: logger.go
// Title: Core Logger Implementation
// Description: Structured logger with immutable With* derivation, pluggable
//              output formats and integration with the coded error type.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-18
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-18 v0.2.0: Caller/invocation scoping, async mode removed

package log

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
)

// Logger represents a structured logger with contextual information
type Logger struct {
	level     Level
	formatter Formatter
	output    io.Writer
	name      string

	contextFields Fields
	caller        string
	invocationID  string

	enableSource bool

	// shared by all loggers derived from the same root so writes never interleave
	writeMu *sync.Mutex
	mutex   sync.RWMutex
}

// Config represents logger configuration
type Config struct {
	Level        Level
	Format       Format
	Output       io.Writer
	Name         string
	EnableSource bool
}

// New creates a new logger writing JSON at info level to stdout
func New() *Logger {
	return NewWithConfig(Config{Level: LevelInfo, Format: FormatJSON})
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:         config.Level,
		formatter:     GetFormatter(config.Format),
		output:        output,
		name:          config.Name,
		contextFields: make(Fields),
		enableSource:  config.EnableSource,
		writeMu:       &sync.Mutex{},
	}
}

// Discard returns a logger that drops everything, for tests and embedding
func Discard() *Logger {
	return NewWithConfig(Config{Level: LevelFatal + 1, Output: io.Discard})
}

// WithLevel returns a copy of the logger with a different minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := l.clone()
	clone.level = level
	return clone
}

// WithOutput returns a copy of the logger writing to output
func (l *Logger) WithOutput(output io.Writer) *Logger {
	clone := l.clone()
	clone.output = output
	return clone
}

// WithName returns a copy of the logger with a different name
func (l *Logger) WithName(name string) *Logger {
	clone := l.clone()
	clone.name = name
	return clone
}

// WithField adds a persistent field to all log entries
func (l *Logger) WithField(key string, value interface{}) *Logger {
	clone := l.clone()
	clone.contextFields[key] = value
	return clone
}

// WithFields adds persistent fields to all log entries
func (l *Logger) WithFields(fields Fields) *Logger {
	clone := l.clone()
	for k, v := range fields {
		clone.contextFields[k] = v
	}
	return clone
}

// WithCaller scopes the logger to one command caller
func (l *Logger) WithCaller(caller string) *Logger {
	clone := l.clone()
	clone.caller = caller
	return clone
}

// WithInvocation scopes the logger to one dispatch attempt
func (l *Logger) WithInvocation(id string) *Logger {
	clone := l.clone()
	clone.invocationID = id
	return clone
}

func (l *Logger) Trace(message string, fields ...Fields) { l.log(LevelTrace, message, nil, fields...) }
func (l *Logger) Debug(message string, fields ...Fields) { l.log(LevelDebug, message, nil, fields...) }
func (l *Logger) Info(message string, fields ...Fields)  { l.log(LevelInfo, message, nil, fields...) }
func (l *Logger) Warn(message string, fields ...Fields)  { l.log(LevelWarn, message, nil, fields...) }
func (l *Logger) Error(message string, fields ...Fields) { l.log(LevelError, message, nil, fields...) }
func (l *Logger) Audit(message string, fields ...Fields) { l.log(LevelAudit, message, nil, fields...) }

// Fatal logs a fatal level message and exits the program
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	os.Exit(1)
}

// ErrorWithErr logs an error with an error object
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs a warning with an error object
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs an error choosing the level from its severity when it is a
// coded error.
func (l *Logger) LogError(err error, extra ...Fields) {
	if err == nil {
		return
	}
	ckErr, ok := ckerror.As(err)
	if !ok {
		l.log(LevelError, err.Error(), err, extra...)
		return
	}

	fields := Fields{
		"error_code":     ckErr.Code().String(),
		"error_severity": ckErr.Severity().String(),
	}
	for _, f := range extra {
		fields = fields.Merge(f)
	}
	if op := ckErr.Operation(); op != "" {
		fields["error_operation"] = op
	}
	for k, v := range ckErr.Details() {
		fields["error_"+k] = v
	}

	level := LevelError
	switch ckErr.Severity() {
	case ckerror.SeverityLow:
		level = LevelInfo
	case ckerror.SeverityMedium:
		level = LevelWarn
	}
	l.log(level, ckErr.Message(), err, fields)
}

// StartTimer creates and starts a new performance timer
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// IsLevelEnabled returns true if the given level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return level.ShouldLog(l.level)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.level
}

func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	if !l.IsLevelEnabled(level) {
		return
	}
	entry := NewEntry(level, message)
	entry.Error = err
	for _, set := range fields {
		for k, v := range set {
			entry.Fields[k] = v
		}
	}
	if l.enableSource {
		entry.Source = source(4)
	}
	l.write(entry)
}

// write stamps the logger context onto entry and emits it
func (l *Logger) write(entry *Entry) {
	l.mutex.RLock()
	entry.Logger = l.name
	entry.Caller = l.caller
	entry.InvocationID = l.invocationID
	for k, v := range l.contextFields {
		if _, set := entry.Fields[k]; !set {
			entry.Fields[k] = v
		}
	}
	formatter, output := l.formatter, l.output
	l.mutex.RUnlock()

	formatted, err := formatter.Format(entry)
	if err != nil {
		return
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, _ = output.Write(formatted)
}

func source(skip int) *SourceInfo {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return nil
	}
	function := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
		if idx := strings.LastIndex(function, "."); idx != -1 {
			function = function[idx+1:]
		}
	}
	if idx := strings.LastIndex(file, "/"); idx != -1 {
		file = file[idx+1:]
	}
	return &SourceInfo{Function: function, File: file, Line: line}
}

func (l *Logger) clone() *Logger {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	clone := &Logger{
		level:         l.level,
		formatter:     l.formatter,
		output:        l.output,
		name:          l.name,
		caller:        l.caller,
		invocationID:  l.invocationID,
		enableSource:  l.enableSource,
		contextFields: make(Fields, len(l.contextFields)),
		writeMu:       l.writeMu,
	}
	for k, v := range l.contextFields {
		clone.contextFields[k] = v
	}
	return clone
}

var (
	defaultLogger   = New()
	defaultLoggerMu sync.RWMutex
)

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}
