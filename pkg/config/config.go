// Package config handles gobf.toml run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name FindAndLoad looks for.
const FileName = "gobf.toml"

// Config represents a gobf.toml file. It only affects the front ends; the
// interpreter itself has no settings.
type Config struct {
	Run     Run     `toml:"run"`
	Log     Log     `toml:"log"`
	Desktop Desktop `toml:"desktop"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-"`
}

// Run configures console runs.
type Run struct {
	// MaxSteps stops a run after this many instructions. Zero means no limit.
	MaxSteps uint64 `toml:"max_steps"`
	// Snapshot is written when a run fails or hits MaxSteps.
	Snapshot string `toml:"snapshot"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Desktop configures the tape viewer.
type Desktop struct {
	StepsPerFrame int `toml:"steps_per_frame"`
	Columns       int `toml:"columns"`
	Scale         int `toml:"scale"`
}

// Default returns the configuration used when no gobf.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Desktop.StepsPerFrame <= 0 {
		c.Desktop.StepsPerFrame = 10000
	}
	if c.Desktop.Columns <= 0 {
		c.Desktop.Columns = 16
	}
	if c.Desktop.Scale <= 0 {
		c.Desktop.Scale = 1
	}
}

// Load parses a gobf.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if c.Log.Verbosity < 0 {
		return nil, fmt.Errorf("%s: log.verbosity must not be negative", path)
	}

	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a gobf.toml file and loads it.
// It returns the defaults when none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		_, err := os.Stat(filepath.Join(dir, FileName))
		if err == nil {
			return Load(dir)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Resolve makes a config-relative path absolute.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// LogFile returns the resolved log file path, or nil for stderr.
func (c *Config) LogFile() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Resolve(c.Log.File)
	return &path
}
