package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Questions struct {
		// CSVURL points at the raw question bank CSV (e.g. a raw GitHub
		// link). CSVPath reads the same file from disk. Postgres wins over
		// both when configured.
		CSVURL  string `yaml:"csv_url"`
		CSVPath string `yaml:"csv_path"`
		TTL     string `yaml:"ttl"`
	} `yaml:"questions"`
	Quiz struct {
		FallbackName       string `yaml:"fallback_name"`
		SecondsPerQuestion int    `yaml:"seconds_per_question"`
	} `yaml:"quiz"`
	Submission struct {
		Endpoint   string `yaml:"endpoint"`
		Optimistic *bool  `yaml:"optimistic"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"submission"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty
// or malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// SecondsPerQuestion applies the policy default when unset.
func (c Config) SecondsPerQuestion() int {
	if c.Quiz.SecondsPerQuestion > 0 {
		return c.Quiz.SecondsPerQuestion
	}
	return 90
}

// OptimisticSubmit defaults to true: the confirmation screen shows before
// the collection endpoint confirms anything.
func (c Config) OptimisticSubmit() bool {
	if c.Submission.Optimistic == nil {
		return true
	}
	return *c.Submission.Optimistic
}
