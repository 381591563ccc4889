// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Storage, Search, Index, Redis, Kafka, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Index   IndexConfig   `yaml:"index"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig holds the base directory and file names of the persisted
// logs. All files live directly under BaseDir.
type StorageConfig struct {
	BaseDir        string `yaml:"baseDir"`
	ExperienceFile string `yaml:"experienceFile"`
	FeedbackFile   string `yaml:"feedbackFile"`
	IndexFile      string `yaml:"indexFile"`
}

// ExperiencePath returns the absolute path of the experience log.
func (s StorageConfig) ExperiencePath() string {
	return filepath.Join(s.BaseDir, s.ExperienceFile)
}

// FeedbackPath returns the absolute path of the tool-feedback log.
func (s StorageConfig) FeedbackPath() string {
	return filepath.Join(s.BaseDir, s.FeedbackFile)
}

// IndexPath returns the absolute path of the persisted inverted index.
func (s StorageConfig) IndexPath() string {
	return filepath.Join(s.BaseDir, s.IndexFile)
}

// SearchConfig controls result limits for the query engine.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxResults   int `yaml:"maxResults"`
}

// IndexConfig controls how index freshness is maintained. Policy is either
// "incremental" (persisted index patched on writes, rebuilt only when the
// store changed through a non-indexed path) or "rebuild" (full rebuild on
// every query).
type IndexConfig struct {
	Policy string `yaml:"policy"`
}

// RedisConfig holds connection parameters for the optional search result
// cache. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds broker and topic settings for the optional analytics
// event stream. An empty Brokers list disables publishing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// LoggingConfig holds log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with defaults matching the historical file
// layout: logs beside the running binary.
func defaultConfig() *Config {
	baseDir := "."
	if exe, err := os.Executable(); err == nil {
		baseDir = filepath.Dir(exe)
	}
	return &Config{
		Storage: StorageConfig{
			BaseDir:        baseDir,
			ExperienceFile: "experience.jsonl",
			FeedbackFile:   "feedback-tools.jsonl",
			IndexFile:      "experience-index.json",
		},
		Search: SearchConfig{
			DefaultLimit: 5,
			MaxResults:   50,
		},
		Index: IndexConfig{
			Policy: PolicyIncremental,
		},
		Redis: RedisConfig{
			Addr:     "",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: nil,
			Topic:   "expvault-events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Index freshness policies.
const (
	PolicyIncremental = "incremental"
	PolicyRebuild     = "rebuild"
)

func (c *Config) validate() error {
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.baseDir must not be empty")
	}
	if c.Storage.ExperienceFile == "" || c.Storage.FeedbackFile == "" || c.Storage.IndexFile == "" {
		return fmt.Errorf("storage file names must not be empty")
	}
	if c.Search.DefaultLimit < 1 {
		c.Search.DefaultLimit = 5
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		c.Search.MaxResults = c.Search.DefaultLimit
	}
	switch c.Index.Policy {
	case PolicyIncremental, PolicyRebuild:
	case "":
		c.Index.Policy = PolicyIncremental
	default:
		return fmt.Errorf("index.policy must be %q or %q, got %q",
			PolicyIncremental, PolicyRebuild, c.Index.Policy)
	}
	return nil
}

// applyEnvOverrides reads EXPVAULT_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EXPVAULT_BASE_DIR"); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := os.Getenv("EXPVAULT_INDEX_POLICY"); v != "" {
		cfg.Index.Policy = v
	}
	if v := os.Getenv("EXPVAULT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("EXPVAULT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("EXPVAULT_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("EXPVAULT_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("EXPVAULT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("EXPVAULT_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("EXPVAULT_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Enabled = true
			cfg.Metrics.Port = port
		}
	}
}
