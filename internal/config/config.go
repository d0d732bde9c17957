package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the failure handling stack: how
// responses are classified, how failures are presented, how retries are
// advised and how all of it is logged.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Adapter    AdapterConfig    `yaml:"adapter"`
	Retry      RetryConfig      `yaml:"retry"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Journal    JournalConfig    `yaml:"journal"`
	Events     EventsConfig     `yaml:"events"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// ClassifierConfig controls response classification.
type ClassifierConfig struct {
	BodyLimit         int64 `yaml:"body_limit,omitempty"`         // bytes kept from an error body
	RetriableStatuses []int `yaml:"retriable_statuses,omitempty"` // 4xx statuses worth retrying
}

// AdapterConfig controls failure presentation.
type AdapterConfig struct {
	ExposeDetails bool `yaml:"expose_details"`
}

// RetryConfig controls retry advice.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries *int             `yaml:"max_retries,omitempty"`
}

// MetricsConfig controls the Prometheus recorder.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace,omitempty"`
}

// JournalConfig controls the SQLite failure journal. An empty path disables it.
type JournalConfig struct {
	Path          string        `yaml:"path,omitempty"`
	Retention     time.Duration `yaml:"retention,omitempty"`
	PruneInterval time.Duration `yaml:"prune_interval,omitempty"`
}

// EventsConfig controls publishing failure events to NATS. An empty URL disables it.
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

const (
	defaultBodyLimit     int64 = 64 << 10
	defaultNamespace           = "commerceapi"
	defaultMaxRetries          = 2
	defaultSubjectPrefix       = "commerceapi.failures"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration at configPath. Variables from a .env file are
// loaded first and ${VAR} references in the file are expanded. An empty path
// yields the defaults.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil && !errors.Is(err, errNoEnvFile) {
		// A broken .env is reported but does not stop loading.
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if configPath == "" {
		return Default(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding environment variables, applying
// defaults and validating the result.
func Parse(data []byte) (*Config, error) {
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))

	if c.Classifier.BodyLimit == 0 {
		c.Classifier.BodyLimit = defaultBodyLimit
	}

	if c.Retry.Mode == "" {
		c.Retry.Mode = RetryBackoffLinear
	} else if m := NormalizeRetryBackoff(string(c.Retry.Mode)); m != "" {
		c.Retry.Mode = m
	}
	if c.Retry.Initial == 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max == 0 {
		c.Retry.Max = 30 * time.Second
	}
	if c.Retry.MaxRetries == nil {
		n := defaultMaxRetries
		c.Retry.MaxRetries = &n
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = defaultNamespace
	}

	if c.Journal.Retention == 0 {
		c.Journal.Retention = 7 * 24 * time.Hour
	}
	if c.Journal.PruneInterval == 0 {
		c.Journal.PruneInterval = time.Hour
	}
	if c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = defaultSubjectPrefix
	}
}

// MaxRetryCount returns the configured retry budget.
func (r RetryConfig) MaxRetryCount() int {
	if r.MaxRetries == nil {
		return defaultMaxRetries
	}
	return *r.MaxRetries
}
