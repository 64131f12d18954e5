// Package config loads pivotql settings from a YAML file and PIVOTQL_*
// environment variables. Environment variables win over the file; the file
// wins over defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PIVOTQL_"

// Config is the full configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`

	// Cube selects a cube of the discovery; empty picks the only one.
	Cube string `yaml:"cube"`

	// CubeDir holds CUE cube definitions, used to compile without an
	// engine.
	CubeDir string `yaml:"cube_dir"`

	Capabilities Capabilities `yaml:"capabilities"`

	// HistoryPath is the query history database; empty disables history.
	HistoryPath string `yaml:"history_path"`

	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`
}

// EngineConfig locates and throttles the engine.
type EngineConfig struct {
	URL            string        `yaml:"url"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

// Capabilities toggles optional engine features.
type Capabilities struct {
	Branching bool `yaml:"branching"`
	Styling   bool `yaml:"styling"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout:        30 * time.Second,
			RateLimitBurst: 1,
		},
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

// Load reads the file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	parse := func(name string, set func(string) error) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		if err := set(strings.TrimSpace(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
	}

	str("ENGINE_URL", &c.Engine.URL)
	str("ENGINE_TOKEN", &c.Engine.Token)
	str("CUBE", &c.Cube)
	str("CUBE_DIR", &c.CubeDir)
	str("HISTORY_PATH", &c.HistoryPath)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)

	parse("ENGINE_TIMEOUT", func(v string) (err error) {
		c.Engine.Timeout, err = time.ParseDuration(v)
		return err
	})
	parse("RATE_LIMIT_RPS", func(v string) (err error) {
		c.Engine.RateLimitRPS, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("RATE_LIMIT_BURST", func(v string) (err error) {
		c.Engine.RateLimitBurst, err = strconv.Atoi(v)
		return err
	})
	parse("BRANCHING", func(v string) (err error) {
		c.Capabilities.Branching, err = strconv.ParseBool(v)
		return err
	})
	parse("STYLING", func(v string) (err error) {
		c.Capabilities.Styling, err = strconv.ParseBool(v)
		return err
	})
	return errors.Join(errs...)
}

// Validate checks the configuration for values no component could use.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.URL != "" {
		u, err := url.Parse(c.Engine.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("engine.url %q must be an http(s) URL", c.Engine.URL))
		}
	}
	if c.Engine.Timeout < 0 {
		errs = append(errs, fmt.Errorf("engine.timeout must not be negative"))
	}
	if c.Engine.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("engine.rate_limit_rps must not be negative"))
	}
	if c.Engine.RateLimitBurst < 0 {
		errs = append(errs, fmt.Errorf("engine.rate_limit_burst must not be negative"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
