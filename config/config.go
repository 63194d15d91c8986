// Package config holds the decompiler options and loads them from YAML files.
package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/petr590/NewYava-sub001/render"
)

// Config is the decompiler configuration
type Config struct {
	IgnoreVariableTable bool   `yaml:"ignoreVariableTable"` // IgnoreVariableTable synthesizes local names even when a debug table exists
	ImportNestedClasses bool   `yaml:"importNestedClasses"` // ImportNestedClasses imports nested classes instead of qualifying them by their outer class
	SkipStackTrace      bool   `yaml:"skipStackTrace"`      // SkipStackTrace omits the stack detail from failure comments
	Indent              string `yaml:"indent"`              // Indent is the indentation unit
	Workers             int    `yaml:"workers"`             // Workers is the number of classes decompiled concurrently
	LogLevel            string `yaml:"logLevel"`            // LogLevel is a logrus level name
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Indent:   render.DefaultIndent,
		Workers:  runtime.GOMAXPROCS(0),
		LogLevel: logrus.InfoLevel.String(),
	}
}

// Load reads a YAML configuration file. Options missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the option values
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Indent == "" || strings.Trim(c.Indent, " \t") != "" {
		return errors.Errorf("indent must be made of spaces and tabs, got %q", c.Indent)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
