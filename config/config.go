// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads the squadctl configuration. Values come from
// defaults, then the key=value file at {DataDir}/config, then SQUADS_*
// environment variables.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SQUADS_"

// Config holds squadctl settings.
type Config struct {
	DataDir     string `env:"DATA_DIR"`
	Network     string `env:"NETWORK"`
	LogLevel    string `env:"LOG_LEVEL"`
	LogFile     string `env:"LOG_FILE"`
	DBFile      string `env:"DB_FILE"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// configKeys maps file keys to fields, in the order SaveConfig writes them.
var configKeys = []struct {
	key   string
	field func(*Config) *string
}{
	{"datadir", func(c *Config) *string { return &c.DataDir }},
	{"network", func(c *Config) *string { return &c.Network }},
	{"loglevel", func(c *Config) *string { return &c.LogLevel }},
	{"logfile", func(c *Config) *string { return &c.LogFile }},
	{"dbfile", func(c *Config) *string { return &c.DBFile }},
	{"metrics", func(c *Config) *string { return &c.MetricsAddr }},
}

// DefaultDataDir returns ~/.squads, or .squads if the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".squads"
	}
	return filepath.Join(home, ".squads")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		Network:     "mainnet",
		LogLevel:    "info",
		LogFile:     "",
		DBFile:      "squads.db",
		MetricsAddr: ":9464",
	}
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DBPath returns the database path; a relative DBFile lives under DataDir.
func (c Config) DBPath() string {
	if filepath.IsAbs(c.DBFile) {
		return c.DBFile
	}
	return filepath.Join(c.DataDir, c.DBFile)
}

// LoadConfig reads the key=value file at path on top of DefaultConfig.
// Blank lines and lines starting with '#' are skipped; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		for _, k := range configKeys {
			if k.key == key {
				*k.field(&cfg) = value
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits a line on its first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# SplitSquads Configuration\n")
	for _, k := range configKeys {
		fmt.Fprintf(&b, "%s = %s\n", k.key, *k.field(&cfg))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg fields from SQUADS_* environment variables.
// Unset variables leave fields untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

// Load resolves the effective configuration for dataDir: defaults, the
// config file if present, then environment overrides. An empty dataDir
// uses SQUADS_DATA_DIR or DefaultDataDir; a non-empty one wins over
// SQUADS_DATA_DIR.
func Load(dataDir string) (Config, error) {
	if dataDir == "" {
		dataDir = os.Getenv(EnvPrefix + "DATA_DIR")
	}
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	cfg, err := LoadConfig(ConfigPath(dataDir))
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	// The directory the file was read from stays authoritative.
	cfg.DataDir = dataDir
	if err := ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
