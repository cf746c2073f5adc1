// Package config loads the run profile: a YAML file carrying the recognized
// pipeline options, with environment overrides for deployment settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so profiles can say "90s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	DatasetID string `yaml:"datasetId"`
	Attempt   int    `yaml:"attempt"`

	InputPath  string `yaml:"inputPath"`
	TargetPath string `yaml:"targetPath"`

	BatchMaxSize int      `yaml:"batchMaxSize"`
	Concurrency  int      `yaml:"concurrency"`
	SyncMode     bool     `yaml:"syncMode"`
	LockTimeout  Duration `yaml:"lockTimeout"`
}

func Default() Config {
	return Config{
		BatchMaxSize: 500,
		Concurrency:  runtime.NumCPU(),
		LockTimeout:  Duration(time.Minute),
	}
}

// Load reads the YAML profile at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse profile: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatasetID == "" {
		return errors.New("datasetId is required")
	}
	if c.Attempt < 1 {
		return errors.New("attempt must be >= 1")
	}
	if c.InputPath == "" {
		return errors.New("inputPath is required")
	}
	if c.TargetPath == "" {
		return errors.New("targetPath is required")
	}
	if c.BatchMaxSize < 1 {
		return errors.New("batchMaxSize must be > 0")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be >= 1")
	}
	if c.LockTimeout <= 0 {
		return errors.New("lockTimeout must be positive")
	}
	return nil
}
