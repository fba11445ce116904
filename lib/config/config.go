// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
	"github.com/bureau-foundation/lsp-proxy/lib/session"
)

// ConfigEnvironmentVariable names the config file when --config is
// not given.
const ConfigEnvironmentVariable = "LSP_PROXY_CONFIG"

// Config holds every proxy setting. Field tags give the names used in
// config files; YAML and JSON files share them.
type Config struct {
	// Server is the language server executable.
	Server string `yaml:"server" json:"server"`

	// ServerArgs are passed to the server before any arguments given
	// on the command line after "--".
	ServerArgs []string `yaml:"server_args" json:"server_args"`

	// LogDirectory receives the session logs.
	LogDirectory string `yaml:"log_dir" json:"log_dir"`

	// LogFormat is raw, jsonl or both.
	LogFormat string `yaml:"log_format" json:"log_format"`

	// Compression is none, zstd or lz4.
	Compression string `yaml:"compression" json:"compression"`

	// Manifest writes a CBOR manifest at the end of each session.
	Manifest bool `yaml:"manifest" json:"manifest"`

	// MetricsFile receives Prometheus text-format metrics at the end
	// of each session. Empty disables metrics.
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`

	// DrainTimeout is a Go duration ("2s", "500ms").
	DrainTimeout string `yaml:"drain_timeout" json:"drain_timeout"`

	// LogOutput sends the proxy's own diagnostics to a file as JSON
	// instead of to stderr.
	LogOutput string `yaml:"log_output" json:"log_output"`

	// Verbose enables debug-level diagnostics.
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// environment is the subset of settings read from the process
// environment.
type environment struct {
	Server       string `env:"LSP_SERVER"`
	LogDirectory string `env:"LSP_PROXY_LOG_DIR"`
	LogFormat    string `env:"LSP_PROXY_LOG_FORMAT"`
	Compression  string `env:"LSP_PROXY_COMPRESSION"`
	MetricsFile  string `env:"LSP_PROXY_METRICS_FILE"`
}

// Default returns the built-in settings: raw logs in the working
// directory, uncompressed, with a two second drain timeout.
func Default() *Config {
	return &Config{
		LogDirectory: ".",
		LogFormat:    "raw",
		Compression:  "none",
		DrainTimeout: "2s",
	}
}

// Load resolves defaults, the config file and the environment. path
// may be empty, in which case LSP_PROXY_CONFIG is consulted; with
// neither set no file is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvironmentVariable)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnvironment(); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile resolves defaults and one config file, without consulting
// the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges a config file into c. Unknown keys are errors, so a
// misspelled setting does not silently fall back to its default.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// An empty file is a valid (if pointless) config.
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvironment overrides settings from environment variables.
// Unset and empty variables leave the current value alone.
func (c *Config) applyEnvironment() error {
	var env environment
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("reading environment: %w", err)
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{env.Server, &c.Server},
		{env.LogDirectory, &c.LogDirectory},
		{env.LogFormat, &c.LogFormat},
		{env.Compression, &c.Compression},
		{env.MetricsFile, &c.MetricsFile},
	}
	for _, override := range overrides {
		if override.value != "" {
			*override.target = override.value
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Server = expandVars(c.Server)
	c.LogDirectory = expandVars(c.LogDirectory)
	c.MetricsFile = expandVars(c.MetricsFile)
	c.LogOutput = expandVars(c.LogOutput)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Mode parses LogFormat.
func (c *Config) Mode() (session.Mode, error) {
	return session.ParseMode(c.LogFormat)
}

// CompressionMode parses Compression.
func (c *Config) CompressionMode() (logsink.Compression, error) {
	return logsink.ParseCompression(c.Compression)
}

// DrainTimeoutDuration parses DrainTimeout. Empty selects zero, which
// the proxy treats as its default.
func (c *Config) DrainTimeoutDuration() (time.Duration, error) {
	if c.DrainTimeout == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(c.DrainTimeout)
	if err != nil {
		return 0, fmt.Errorf("drain_timeout: %w", err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("drain_timeout must not be negative, got %s", c.DrainTimeout)
	}
	return duration, nil
}

// Validate checks the settings needed to run a session.
func (c *Config) Validate() error {
	var errs []error

	if c.Server == "" {
		errs = append(errs, errors.New("no language server configured (use --server or LSP_SERVER)"))
	}
	if _, err := c.Mode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CompressionMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DrainTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
