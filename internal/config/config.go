package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidsim/internal/pid"
)

const (
	DefaultVariant   = "positional"
	DefaultSetpoint  = 200.0
	DefaultDataDir   = ".pidsim"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Variant     string        `yaml:"variant"`
	Setpoint    float64       `yaml:"setpoint"`
	Gains       *pid.Gains    `yaml:"gains,omitempty"`
	DataDir     string        `yaml:"data_dir"`
	MetricsFile string        `yaml:"metrics_file,omitempty"`
	Logging     LoggingConfig `yaml:"logging"`
}

// LoggingConfig selects level, output format and an optional Loki sink.
type LoggingConfig struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"`
	Loki   LokiConfig `yaml:"loki"`
}

type LokiConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Labels  map[string]string `yaml:"labels,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Variant:  DefaultVariant,
		Setpoint: DefaultSetpoint,
		DataDir:  DefaultDataDir,
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := pid.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if math.IsNaN(c.Setpoint) || math.IsInf(c.Setpoint, 0) {
		return fmt.Errorf("%w: setpoint must be finite, got %v", ErrInvalidConfig, c.Setpoint)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	}
	if c.Logging.Loki.Enabled && c.Logging.Loki.URL == "" {
		return fmt.Errorf("%w: loki url is required when loki is enabled", ErrInvalidConfig)
	}
	return nil
}

// Policy builds the configured controller policy, applying the gain override
// when one is set.
func (c *Config) Policy() (pid.Policy, error) {
	v, err := pid.ParseVariant(c.Variant)
	if err != nil {
		return nil, err
	}
	p := pid.NewPolicy(v)
	if c.Gains != nil {
		p = pid.WithGains(p, *c.Gains)
	}
	return p, nil
}
