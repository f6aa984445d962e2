// Package config loads allot settings. A global file and a per-project file
// are merged (project wins), then ALLOT_* environment variables override both.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configurable allot settings.
type Config struct {
	CategoriesPath      string   `json:"categories_path" env:"ALLOT_CATEGORIES"`
	DefaultTotalMinutes int      `json:"default_total_minutes" env:"ALLOT_TOTAL_MINUTES"`
	DefaultFormat       string   `json:"default_format" env:"ALLOT_FORMAT"` // "markdown" | "json"
	OutputDir           string   `json:"output_dir" env:"ALLOT_OUTPUT_DIR"`
	DataDir             string   `json:"data_dir" env:"ALLOT_DATA_DIR"` // state and history; XDG default when empty
	TickInterval        Duration `json:"tick_interval" env:"ALLOT_TICK"`
}

// Duration is a time.Duration that reads as "1s" in JSON and env vars.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText lets caarlos0/env parse ALLOT_TICK.
func (d *Duration) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		DefaultTotalMinutes: 90,
		DefaultFormat:       "markdown",
		OutputDir:           ".",
		TickInterval:        Duration{time.Second},
	}
}

// ConfigDir returns ~/.config/allot.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "allot"), nil
}

// LoadGlobal reads ~/.config/allot/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(dir, "config.json"), true)
}

// LoadProject reads .allotconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".allotconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	overlay(&result, global)
	overlay(&result, project)
	return result
}

func overlay(dst, src *Config) {
	if src == nil {
		return
	}
	if src.CategoriesPath != "" {
		dst.CategoriesPath = src.CategoriesPath
	}
	if src.DefaultTotalMinutes > 0 {
		dst.DefaultTotalMinutes = src.DefaultTotalMinutes
	}
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.OutputDir != "" {
		dst.OutputDir = src.OutputDir
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.TickInterval.Duration > 0 {
		dst.TickInterval = src.TickInterval
	}
}

// ApplyEnv overrides cfg with any ALLOT_* environment variables that are set.
func ApplyEnv(cfg Config) (Config, error) {
	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	overlay(&cfg, &fromEnv)
	return cfg, nil
}

// Load is LoadGlobal, LoadProject, Merge and ApplyEnv in one call.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, fmt.Errorf("loading project config: %w", err)
	}
	return ApplyEnv(Merge(global, project))
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
