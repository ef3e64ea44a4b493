// ============================================================================
// cmdkit - Command Parsing and Execution Engine
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating loggers from host configuration
// Author:      msto63
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/pkg/core/config"
)

var (
	// open log files shared by every logger writing to the same path
	files   = map[string]*os.File{}
	filesMu sync.Mutex
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Component name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: json, text, console or logfmt (default: json)
	Format string

	// File receives the log instead of stdout when set. Hosts that own the
	// terminal, like the console, log to a file.
	File string

	// Source adds the caller's file and line
	Source bool

	// Output replaces stdout when set and File is empty
	Output io.Writer

	// Additional outputs (besides stdout or File)
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
	}
}

// FromConfig derives a logger configuration from the host configuration
func FromConfig(serviceName string, cfg config.LoggingConfig) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       cfg.Level,
		Format:      cfg.Format,
		Source:      cfg.Source,
	}
}

// NewLogger creates a new foundation logger
func NewLogger(cfg LoggerConfig) *cklog.Logger {
	level := parseLevel(cfg.Level)

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	if cfg.File != "" {
		if f, err := openFile(cfg.File); err == nil {
			output = f
		}
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	// unknown formats fall back to JSON
	format, _ := cklog.ParseFormat(cfg.Format)

	return cklog.NewWithConfig(cklog.Config{
		Level:        level,
		Format:       format,
		Output:       output,
		Name:         cfg.ServiceName,
		EnableSource: cfg.Source,
	})
}

// NewSimpleLogger creates a logger with the default configuration
func NewSimpleLogger(serviceName string) *cklog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

// Setup creates the logger for a host and installs it as the foundation
// default, so engine packages without an explicit logger use it too.
func Setup(serviceName string, cfg LoggerConfig) *cklog.Logger {
	cfg.ServiceName = serviceName
	logger := NewLogger(cfg)
	cklog.SetDefault(logger)
	return logger
}

// CloseFiles closes every log file opened by the factory
func CloseFiles() error {
	filesMu.Lock()
	defer filesMu.Unlock()

	var first error
	for path, f := range files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(files, path)
	}
	return first
}

func openFile(path string) (*os.File, error) {
	filesMu.Lock()
	defer filesMu.Unlock()

	if f, ok := files[path]; ok {
		return f, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	files[path] = f
	return f, nil
}

// parseLevel converts a string level to cklog.Level
func parseLevel(level string) cklog.Level {
	// unknown levels fall back to info
	l, _ := cklog.ParseLevel(level)
	return l
}

// Compatibility layer for code using key/value logging

// Logger wraps the foundation logger with key/value methods
type Logger struct {
	*cklog.Logger
	name string
}

// New creates a new key/value logger
func New(name string) *Logger {
	return &Logger{
		Logger: NewSimpleLogger(name),
		name:   name,
	}
}

// Wrap adapts an existing foundation logger
func Wrap(name string, logger *cklog.Logger) *Logger {
	return &Logger{Logger: logger.WithName(name), name: name}
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{
		Logger: l.Logger.WithLevel(level.foundation()),
		name:   l.name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to cklog.Fields
func toFields(keysAndValues ...interface{}) cklog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(cklog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
