// Package config resolves the host, API key, default twin and timeout used to
// reach the Maybind API.
//
// Each setting is taken from the first source that provides it:
//
//  1. explicit values in [Options] (usually command-line flags)
//  2. the process environment
//  3. a .env file
//  4. a YAML or JSON config file
//
// A missing API key is not an error here. It only surfaces when the server
// rejects an authenticated call.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultHost is the production API endpoint.
const DefaultHost = "https://sdk.maybind.com"

// DefaultTimeout bounds a single round trip.
const DefaultTimeout = 30 * time.Second

// DefaultTwinID is used when no twin is configured and none can be discovered.
const DefaultTwinID = "01"

// DefaultEnvFile is the .env file read and written by default.
const DefaultEnvFile = ".env"

// Environment variable names.
const (
	EnvAPIKey  = "MAYBIND_API_KEY"
	EnvHost    = "MAYBIND_API_HOST"
	EnvTwinID  = "MAYBIND_TWIN_ID"
	EnvTimeout = "MAYBIND_TIMEOUT"
)

// Config holds the settings read by the API client. It is a plain value and
// must be fully resolved before the first call.
type Config struct {
	Host    string
	APIKey  string
	TwinID  string
	Timeout time.Duration
}

// Options are the inputs to Load. Empty fields fall through to the next
// source.
type Options struct {
	Host    string
	APIKey  string
	TwinID  string
	Timeout time.Duration

	// EnvFile is the .env file to read. Empty means DefaultEnvFile; a missing
	// file is ignored.
	EnvFile string

	// ConfigFile is an optional YAML or JSON file. Unlike EnvFile it must
	// exist when set.
	ConfigFile string

	// LookupEnv replaces os.LookupEnv. Tests use it to isolate the process
	// environment.
	LookupEnv func(string) (string, bool)
}

// File is the shape of the optional config file.
type File struct {
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
	TwinID  string `yaml:"twin_id"`
	Timeout string `yaml:"timeout"`
}

// Load resolves a Config from opts, the environment, the .env file and the
// config file, in that order of priority.
func Load(opts Options) (Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenv, err := ReadEnvFile(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}

	var file File
	if opts.ConfigFile != "" {
		file, err = LoadFile(opts.ConfigFile)
		if err != nil {
			return Config{}, err
		}
	}

	pick := func(explicit, env, fromFile string) string {
		if explicit != "" {
			return explicit
		}
		if v, ok := lookup(env); ok && v != "" {
			return v
		}
		if v := dotenv[env]; v != "" {
			return v
		}
		return fromFile
	}

	cfg := Config{
		Host:   pick(opts.Host, EnvHost, file.Host),
		APIKey: pick(opts.APIKey, EnvAPIKey, file.APIKey),
		TwinID: pick(opts.TwinID, EnvTwinID, file.TwinID),
	}

	cfg.Timeout = opts.Timeout
	if cfg.Timeout == 0 {
		raw := pick("", EnvTimeout, file.Timeout)
		if raw != "" {
			d, err := ParseTimeout(raw)
			if err != nil {
				return Config{}, err
			}
			cfg.Timeout = d
		}
	}

	return cfg.withDefaults(), nil
}

// Default returns a Config pointing at DefaultHost with no key.
func Default() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	c.Host = strings.TrimRight(c.Host, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// IsConfigured reports whether an API key is present.
func (c Config) IsConfigured() bool {
	return c.APIKey != ""
}

// MaskedKey returns the key with everything but its last four characters
// hidden, or "(not set)" when no key is configured.
func (c Config) MaskedKey() string {
	switch {
	case c.APIKey == "":
		return "(not set)"
	case len(c.APIKey) <= 4:
		return strings.Repeat("*", len(c.APIKey))
	default:
		return strings.Repeat("*", 20) + c.APIKey[len(c.APIKey)-4:]
	}
}

// String renders the config for display without revealing the key.
func (c Config) String() string {
	return fmt.Sprintf("host=%s api_key=%s twin_id=%s timeout=%s", c.Host, c.MaskedKey(), c.TwinID, c.Timeout)
}

// ReadEnvFile parses a .env file without touching the process environment.
// An empty path means DefaultEnvFile. A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		path = DefaultEnvFile
	}

	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return vars, nil
}

// SaveEnv writes the host and key into the .env file at path, keeping any
// other variables already present. The file is created with mode 0600.
func (c Config) SaveEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}

	existing, err := ReadEnvFile(path)
	if err != nil {
		return err
	}

	vars := make(map[string]string, len(existing)+2)
	maps.Copy(vars, existing)

	if c.APIKey != "" {
		vars[EnvAPIKey] = c.APIKey
	}
	if c.Host != "" {
		vars[EnvHost] = c.Host
	}
	if c.TwinID != "" {
		vars[EnvTwinID] = c.TwinID
	}

	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("config: chmod %s: %w", path, err)
	}

	return nil
}

// LoadFile reads a YAML (or JSON, which YAML accepts) config file.
// Environment variables referenced as ${VAR} or $VAR are expanded before
// parsing, so secrets can stay out of the file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return File{}, fmt.Errorf("config: load file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return File{}, fmt.Errorf("config: parse file: %w", err)
	}

	return f, nil
}

// ParseTimeout accepts a Go duration ("45s", "1m") or a bare number of
// seconds ("30").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("config: timeout must be positive, got %q", s)
		}
		return d, nil
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("config: invalid timeout %q", s)
	}

	return time.Duration(secs * float64(time.Second)), nil
}
