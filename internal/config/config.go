// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/media-recommender/config.yaml",
	"/etc/media-recommender/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "MRS_CONFIG_PATH"

// envPrefix namespaces the environment variables, e.g. MRS_SERVER_PORT.
const envPrefix = "MRS_"

// Config holds all application configuration. Loading order is defaults,
// then an optional YAML file, then MRS_-prefixed environment variables.
// Immutable after Load and safe for concurrent reads.
type Config struct {
	NATS       NATSConfig       `koanf:"nats"`
	Store      StoreConfig      `koanf:"store"`
	Aggregator AggregatorConfig `koanf:"aggregator"`
	Scorer     ScorerConfig     `koanf:"scorer"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// NATSConfig holds messaging settings for the event streams.
type NATSConfig struct {
	// URL of the NATS server. Ignored when EmbeddedServer is true.
	URL string `koanf:"url" validate:"required"`

	// EmbeddedServer runs an in-process NATS server with JetStream.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	// Port for the embedded server listener.
	Port int `koanf:"port" validate:"min=0,max=65535"`

	// DurableName prefixes the durable consumer names.
	DurableName string `koanf:"durable_name" validate:"required"`

	// QueueGroup shares stream subscriptions across instances.
	QueueGroup string `koanf:"queue_group" validate:"required"`

	// MaxDeliver caps broker-side redeliveries per message.
	MaxDeliver int `koanf:"max_deliver" validate:"min=1"`

	// AckWait is how long the broker waits before redelivering an
	// unacknowledged message.
	AckWait time.Duration `koanf:"ack_wait"`

	// RetryCount is how many times the router retries a failing handler
	// before the message is poisoned.
	RetryCount int `koanf:"retry_count" validate:"min=0"`

	// RetryInitialInterval is the first retry backoff.
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`

	// RetryMaxInterval caps the exponential retry backoff.
	RetryMaxInterval time.Duration `koanf:"retry_max_interval"`

	// ThrottlePerSecond limits handler throughput. Zero is unlimited.
	ThrottlePerSecond int64 `koanf:"throttle_per_second" validate:"min=0"`

	// DeduplicationEnabled drops events whose ID was seen recently.
	// Off by default: duplicate redeliveries are double-counted, which
	// operators can reason about, while silent drops cannot be audited.
	DeduplicationEnabled bool `koanf:"deduplication_enabled"`

	// DeduplicationTTL is how long an event ID is remembered.
	DeduplicationTTL time.Duration `koanf:"deduplication_ttl"`

	// CloseTimeout bounds router shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// StoreConfig holds badger storage settings.
type StoreConfig struct {
	// Path is the badger database directory. Feature cache, profiles and
	// dead letter entries share one database under distinct key prefixes.
	Path string `koanf:"path" validate:"required"`

	// InMemory runs badger without disk persistence. Test use only.
	InMemory bool `koanf:"in_memory"`

	// DLQRetention is how long dead letter entries are kept.
	DLQRetention time.Duration `koanf:"dlq_retention"`
}

// AggregatorConfig holds profile aggregation settings.
type AggregatorConfig struct {
	// Partitions is the number of interaction topic partitions. All
	// producers and consumers must agree on this value; changing it
	// reshuffles which users map to which subjects.
	Partitions int `koanf:"partitions" validate:"min=1,max=1024"`

	// MaxCASRetries bounds optimistic write attempts per event.
	MaxCASRetries int `koanf:"max_cas_retries" validate:"min=1"`
}

// ScorerConfig holds external scoring service settings.
type ScorerConfig struct {
	// Enabled toggles the recommendations endpoint.
	Enabled bool `koanf:"enabled"`

	// URL of the scoring service.
	URL string `koanf:"url" validate:"omitempty,url"`

	// Timeout bounds each scoring request.
	Timeout time.Duration `koanf:"timeout"`

	// FailureThreshold trips the circuit breaker after this many
	// consecutive failures.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"min=1"`

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns all defaults. File and environment layers
// override these.
func defaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:                  "nats://127.0.0.1:4222",
			EmbeddedServer:       true,
			StoreDir:             "/data/nats/jetstream",
			Port:                 4222,
			DurableName:          "profile-aggregator",
			QueueGroup:           "aggregators",
			MaxDeliver:           5,
			AckWait:              30 * time.Second,
			RetryCount:           5,
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     time.Minute,
			ThrottlePerSecond:    0,
			DeduplicationEnabled: false,
			DeduplicationTTL:     5 * time.Minute,
			CloseTimeout:         30 * time.Second,
		},
		Store: StoreConfig{
			Path:         "/data/recommender",
			InMemory:     false,
			DLQRetention: 7 * 24 * time.Hour,
		},
		Aggregator: AggregatorConfig{
			Partitions:    8,
			MaxCASRetries: 4,
		},
		Scorer: ScorerConfig{
			Enabled:          false,
			URL:              "",
			Timeout:          5 * time.Second,
			FailureThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration with layered sources: defaults, optional YAML
// file, then environment variables. MRS_NATS_URL maps to nats.url,
// MRS_SERVER_PORT to server.port, and so on.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks all constraint tags plus cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Scorer.Enabled && c.Scorer.URL == "" {
		return fmt.Errorf("scorer.url is required when scorer is enabled")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("nats.store_dir is required when the embedded server is enabled")
	}
	return nil
}

// findConfigFile returns the first existing config path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps MRS_NATS_RETRY_COUNT to nats.retry_count. The first
// underscore separates the section; the rest of the name keeps its
// underscores as the field key.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, field, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + field
}
