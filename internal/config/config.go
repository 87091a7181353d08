// Package config loads the machete configuration file.
//
// Every setting has a default, so the file is optional:
//
//	catalog: ./catalog        # CUE catalog directory; empty uses the built-in 5010 catalog
//	directory: ./payers.yaml  # payer directory
//	archive: machete.db       # archive DSN (sqlite path or postgres:// URL)
//	log_level: info           # debug, info, warn, error
//	output:
//	  delimiters: "*:^~"      # element, component, repetition, segment
//	  suffix: "\n"            # written after every segment terminator
//
// Relative paths are resolved against the directory holding the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GeekSage/Machete/internal/claims"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

// DefaultArchive is the archive DSN used when none is configured.
const DefaultArchive = "machete.db"

// Config is the machete configuration.
type Config struct {
	Catalog   string `yaml:"catalog"`
	Directory string `yaml:"directory"`
	Archive   string `yaml:"archive"`
	LogLevel  string `yaml:"log_level"`
	Output    Output `yaml:"output"`
}

// Output controls how documents are written.
type Output struct {
	Delimiters string `yaml:"delimiters"`
	Suffix     string `yaml:"suffix"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Archive:  DefaultArchive,
		LogLevel: "info",
	}
}

// Load reads the file at path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML configuration over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that can be checked without touching the
// filesystem or the network.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Delimiters(); err != nil {
		return err
	}
	return nil
}

// resolve makes relative file paths relative to base.
func (c *Config) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Catalog = abs(c.Catalog)
	c.Directory = abs(c.Directory)
	if !strings.Contains(c.Archive, "://") {
		c.Archive = abs(c.Archive)
	}
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	name := c.LogLevel
	if name == "" {
		name = "info"
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Delimiters returns the output delimiters: the defaults when unset,
// otherwise the four configured characters in element, component,
// repetition, segment order.
func (c *Config) Delimiters() (x12.Delimiters, error) {
	d := x12.DefaultDelimiters()
	if s := c.Output.Delimiters; s != "" {
		if len(s) != 4 {
			return x12.Delimiters{}, fmt.Errorf("output.delimiters: want 4 characters, got %q", s)
		}
		d.Element, d.Component, d.Repetition, d.Segment = s[0], s[1], s[2], s[3]
	}
	d.Suffix = c.Output.Suffix
	if err := d.Validate(); err != nil {
		return x12.Delimiters{}, fmt.Errorf("output.delimiters: %w", err)
	}
	return d, nil
}

// LoadCatalog returns the configured catalog, or the built-in one.
func (c *Config) LoadCatalog() (*schema.Catalog, error) {
	if c.Catalog == "" {
		return schema.Builtin()
	}
	return schema.LoadDir(c.Catalog)
}

// LoadDirectory returns the configured payer directory, or nil when none
// is configured.
func (c *Config) LoadDirectory() (*claims.Directory, error) {
	if c.Directory == "" {
		return nil, nil
	}
	return claims.LoadDirectory(c.Directory)
}
