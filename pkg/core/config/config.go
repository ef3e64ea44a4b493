// ============================================================================
// cmdkit - Command Parsing and Execution Engine
// ============================================================================
//
// Package:     config
// Description: Typed host configuration loaded from TOML or YAML files
// Author:      msto63
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	ckerror "github.com/msto63/cmdkit/foundation/core/error"
)

// Config holds the complete host configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	Engine   EngineConfig   `toml:"engine" yaml:"engine"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	RPC      RPCConfig      `toml:"rpc" yaml:"rpc"`
	Audit    AuditConfig    `toml:"audit" yaml:"audit"`
	Manifest ManifestConfig `toml:"manifest" yaml:"manifest"`
}

// GeneralConfig holds general host settings
type GeneralConfig struct {
	Name    string `toml:"name" yaml:"name"`
	DataDir string `toml:"data_dir" yaml:"data_dir"`
}

// EngineConfig holds dispatch and scheduling settings
type EngineConfig struct {
	TickInterval        Duration `toml:"tick_interval" yaml:"tick_interval"`
	MaxLineLength       int      `toml:"max_line_length" yaml:"max_line_length"`
	DefaultPrecision    float64  `toml:"default_precision" yaml:"default_precision"`
	SuggestionCount     int      `toml:"suggestion_count" yaml:"suggestion_count"`
	SuggestionThreshold float64  `toml:"suggestion_threshold" yaml:"suggestion_threshold"`
	// Permissions lists the permissions granted to every caller; "*" grants all
	Permissions []string `toml:"permissions" yaml:"permissions"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Source bool   `toml:"source" yaml:"source"`
}

// ServerConfig holds the websocket host settings
type ServerConfig struct {
	Host        string   `toml:"host" yaml:"host"`
	Port        int      `toml:"port" yaml:"port"`
	Path        string   `toml:"path" yaml:"path"`
	ReadTimeout Duration `toml:"read_timeout" yaml:"read_timeout"`
	// Channel is "interactive" or "programmatic"
	Channel string `toml:"channel" yaml:"channel"`
}

// RPCConfig holds the gRPC host settings
type RPCConfig struct {
	Enabled           bool     `toml:"enabled" yaml:"enabled"`
	Host              string   `toml:"host" yaml:"host"`
	Port              int      `toml:"port" yaml:"port"`
	MaxMsgSize        int      `toml:"max_msg_size" yaml:"max_msg_size"`
	KeepaliveInterval Duration `toml:"keepalive_interval" yaml:"keepalive_interval"`
	KeepaliveTimeout  Duration `toml:"keepalive_timeout" yaml:"keepalive_timeout"`
}

// AuditConfig holds the audit trail settings
type AuditConfig struct {
	Enabled       bool   `toml:"enabled" yaml:"enabled"`
	Path          string `toml:"path" yaml:"path"`
	RetentionDays int    `toml:"retention_days" yaml:"retention_days"`
}

// ManifestConfig points at the command metadata overrides
type ManifestConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ckerror.Newf("config file not found: %s", path).
			WithCode(ckerror.CodeMissingConfig).
			WithOperation("config.Load")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ckerror.Wrap(err, "failed to read config").WithCode(ckerror.CodeConfigError)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, ckerror.Wrap(err, "failed to parse config").
				WithCode(ckerror.CodeInvalidConfig).
				WithDetail("path", path)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, ckerror.Wrap(err, "failed to parse config").
				WithCode(ckerror.CodeInvalidConfig).
				WithDetail("path", path)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from CMDKIT_CONFIG or the default
// locations. Without any file the defaults are used.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("CMDKIT_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/cmdkit.toml",
			"./cmdkit.toml",
			"./cmdkit.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/cmdkit/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		cfg := Default()
		cfg.applyEnv()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "cmdkit"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}

	// Engine
	if c.Engine.TickInterval.Duration == 0 {
		c.Engine.TickInterval.Duration = 50 * time.Millisecond
	}
	if c.Engine.MaxLineLength == 0 {
		c.Engine.MaxLineLength = 4096
	}
	if c.Engine.DefaultPrecision == 0 {
		c.Engine.DefaultPrecision = 0.6
	}
	if c.Engine.SuggestionCount == 0 {
		c.Engine.SuggestionCount = 5
	}
	if c.Engine.SuggestionThreshold == 0 {
		c.Engine.SuggestionThreshold = 0.5
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8765
	}
	if c.Server.Path == "" {
		c.Server.Path = "/ws"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 5 * time.Minute
	}
	if c.Server.Channel == "" {
		c.Server.Channel = "interactive"
	}

	// RPC
	if c.RPC.Host == "" {
		c.RPC.Host = "127.0.0.1"
	}
	if c.RPC.Port == 0 {
		c.RPC.Port = 9190
	}
	if c.RPC.MaxMsgSize == 0 {
		c.RPC.MaxMsgSize = 4 * 1024 * 1024
	}
	if c.RPC.KeepaliveInterval.Duration == 0 {
		c.RPC.KeepaliveInterval.Duration = 30 * time.Second
	}
	if c.RPC.KeepaliveTimeout.Duration == 0 {
		c.RPC.KeepaliveTimeout.Duration = 10 * time.Second
	}

	// Audit
	if c.Audit.Path == "" {
		c.Audit.Path = filepath.Join(c.General.DataDir, "audit.db")
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 30
	}
}

// applyEnv applies CMDKIT_* overrides
func (c *Config) applyEnv() {
	if v := os.Getenv("CMDKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CMDKIT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CMDKIT_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CMDKIT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CMDKIT_RPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RPC.Port = port
			c.RPC.Enabled = true
		}
	}
	if v := os.Getenv("CMDKIT_AUDIT_PATH"); v != "" {
		c.Audit.Path = v
		c.Audit.Enabled = true
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Audit.Path = os.ExpandEnv(c.Audit.Path)
	c.Manifest.Path = os.ExpandEnv(c.Manifest.Path)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var problems []string
	if c.Engine.TickInterval.Duration < time.Millisecond {
		problems = append(problems, "engine.tick_interval must be at least 1ms")
	}
	if c.Engine.MaxLineLength < 16 {
		problems = append(problems, "engine.max_line_length must be at least 16")
	}
	if c.Engine.DefaultPrecision <= 0 || c.Engine.DefaultPrecision > 1 {
		problems = append(problems, "engine.default_precision must be in (0, 1]")
	}
	if c.Engine.SuggestionThreshold < 0 || c.Engine.SuggestionThreshold > 1 {
		problems = append(problems, "engine.suggestion_threshold must be in [0, 1]")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.RPC.Port < 1 || c.RPC.Port > 65535 {
		problems = append(problems, fmt.Sprintf("rpc.port %d out of range", c.RPC.Port))
	}
	if c.RPC.Enabled && c.RPC.Host == c.Server.Host && c.RPC.Port == c.Server.Port {
		problems = append(problems, "rpc.port must differ from server.port")
	}
	switch c.Server.Channel {
	case "interactive", "programmatic":
	default:
		problems = append(problems, fmt.Sprintf("server.channel %q must be interactive or programmatic", c.Server.Channel))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "console", "logfmt":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is unknown", c.Logging.Format))
	}
	if len(problems) == 0 {
		return nil
	}
	return ckerror.New("invalid configuration: "+strings.Join(problems, "; ")).
		WithCode(ckerror.CodeInvalidConfig).
		WithOperation("config.Validate").
		WithDetail("diagnostics", problems)
}

// ServerAddress returns the listen address of the websocket host
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RPCAddress returns the listen address of the gRPC host
func (c *Config) RPCAddress() string {
	return fmt.Sprintf("%s:%d", c.RPC.Host, c.RPC.Port)
}
