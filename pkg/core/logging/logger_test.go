package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/pkg/core/config"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLevel_Foundation(t *testing.T) {
	tests := map[Level]cklog.Level{
		LevelDebug: cklog.LevelDebug,
		LevelInfo:  cklog.LevelInfo,
		LevelWarn:  cklog.LevelWarn,
		LevelError: cklog.LevelError,
		Level(42):  cklog.LevelInfo,
	}
	for level, want := range tests {
		if got := level.foundation(); got != want {
			t.Errorf("%v.foundation() = %v, want %v", level, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	logger := New("host")
	if logger.name != "host" {
		t.Errorf("name = %v, want host", logger.name)
	}
}

// captured returns a key/value logger writing logfmt into buf
func captured(buf *strings.Builder, level string) *Logger {
	return Wrap("host", NewLogger(LoggerConfig{ServiceName: "host", Level: level, Format: "logfmt", Output: buf}))
}

func TestLogger_KeyValues(t *testing.T) {
	tests := []struct {
		name string
		kv   []interface{}
		want []string
		not  []string
	}{
		{"pairs", []interface{}{"caller", "alice", "count", 3}, []string{`caller="alice"`, "count=3"}, nil},
		{"none", nil, []string{`message="dispatched"`}, nil},
		{"orphan", []interface{}{"caller", "bob", "orphan"}, []string{`caller="bob"`}, []string{"orphan"}},
		{"non-string key", []interface{}{7, "x"}, []string{`message="dispatched"`}, []string{"=x", `"x"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			captured(&buf, "debug").Info("dispatched", tt.kv...)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q lacks %q", out, w)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out, n) {
					t.Errorf("output %q contains %q", out, n)
				}
			}
		})
	}
}

func TestLogger_WithLevel(t *testing.T) {
	var buf strings.Builder
	logger := captured(&buf, "debug").WithLevel(LevelWarn)
	if logger.name != "host" {
		t.Errorf("name should be preserved: got %v", logger.name)
	}

	logger.Info("hidden")
	logger.Warn("shown", "code", "TIMEOUT")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info written below warn level: %q", out)
	}
	if !strings.Contains(out, `message="shown"`) || !strings.Contains(out, "level=warn") {
		t.Errorf("warn missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected cklog.Level
	}{
		{"debug", cklog.LevelDebug},
		{"info", cklog.LevelInfo},
		{"warn", cklog.LevelWarn},
		{"warning", cklog.LevelWarn},
		{"error", cklog.LevelError},
		{"invalid", cklog.LevelInfo}, // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func TestNewLogger_Output(t *testing.T) {
	var buf strings.Builder
	logger := NewLogger(LoggerConfig{ServiceName: "exec", Level: "error", Format: "json", Output: &buf})
	logger.Warn("dropped")
	logger.Error("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("warn written at error level: %q", out)
	}
	if !strings.Contains(out, `"message":"kept"`) || !strings.Contains(out, `"logger":"exec"`) {
		t.Errorf("output = %q", out)
	}
}

func TestToFields(t *testing.T) {
	// Empty input
	fields := toFields()
	if fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	// Valid key-value pairs
	fields = toFields("key1", "value1", "key2", 42)
	if fields == nil {
		t.Fatal("toFields() returned nil")
	}
	if fields["key1"] != "value1" {
		t.Errorf("fields[key1] = %v, want value1", fields["key1"])
	}
	if fields["key2"] != 42 {
		t.Errorf("fields[key2] = %v, want 42", fields["key2"])
	}

	// Non-string key (should be skipped)
	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig("host", config.LoggingConfig{Level: "debug", Format: "logfmt", Source: true})
	if cfg.ServiceName != "host" || cfg.Level != "debug" || cfg.Format != "logfmt" || !cfg.Source {
		t.Errorf("FromConfig() = %+v", cfg)
	}
	if logger := NewLogger(cfg); logger.GetLevel() != cklog.LevelDebug {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "host.log")
	t.Cleanup(func() { CloseFiles() })

	logger := NewLogger(LoggerConfig{ServiceName: "host", Level: "info", Format: "text", File: path})
	logger.Info("written to file", cklog.Fields{"k": "v"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}

func TestWrap(t *testing.T) {
	l := Wrap("audit", cklog.Discard())
	if l.name != "audit" {
		t.Errorf("name = %v, want audit", l.name)
	}
	l.Info("silent", "key", "value")
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := New("benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}
