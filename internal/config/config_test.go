// Media Recommendation System - Event-Driven Profile Aggregation
// Copyright 2026 Luca Eckert (Luca5Eckert)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Luca5Eckert/media-recommendation-system

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Errorf("unexpected nats url %s", cfg.NATS.URL)
	}
	if !cfg.NATS.EmbeddedServer {
		t.Error("embedded server should default on")
	}
	if cfg.Aggregator.Partitions != 8 {
		t.Errorf("expected 8 partitions, got %d", cfg.Aggregator.Partitions)
	}
	if cfg.Aggregator.MaxCASRetries != 4 {
		t.Errorf("expected 4 retries, got %d", cfg.Aggregator.MaxCASRetries)
	}
	if cfg.Store.DLQRetention != 7*24*time.Hour {
		t.Errorf("unexpected dlq retention %s", cfg.Store.DLQRetention)
	}
	if cfg.Scorer.Enabled {
		t.Error("scorer should default off")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("unexpected server port %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MRS_SERVER_PORT", "9090")
	t.Setenv("MRS_LOGGING_LEVEL", "debug")
	t.Setenv("MRS_AGGREGATOR_PARTITIONS", "16")
	t.Setenv("MRS_NATS_RETRY_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Aggregator.Partitions != 16 {
		t.Errorf("expected 16 partitions, got %d", cfg.Aggregator.Partitions)
	}
	if cfg.NATS.RetryCount != 3 {
		t.Errorf("expected retry count 3, got %d", cfg.NATS.RetryCount)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9191
aggregator:
  partitions: 32
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Aggregator.Partitions != 32 {
		t.Errorf("expected 32 partitions, got %d", cfg.Aggregator.Partitions)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn level, got %s", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.NATS.MaxDeliver != 5 {
		t.Errorf("expected default max_deliver 5, got %d", cfg.NATS.MaxDeliver)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("MRS_SERVER_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("environment must win over file, got %d", cfg.Server.Port)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "Level",
		},
		{
			name:   "zero partitions",
			mutate: func(c *Config) { c.Aggregator.Partitions = 0 },
			want:   "Partitions",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "Port",
		},
		{
			name:   "scorer enabled without url",
			mutate: func(c *Config) { c.Scorer.Enabled = true },
			want:   "scorer.url",
		},
		{
			name: "embedded server without store dir",
			mutate: func(c *Config) {
				c.NATS.EmbeddedServer = true
				c.NATS.StoreDir = ""
			},
			want: "store_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to mention %q, got %q", tt.want, err)
			}
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MRS_NATS_URL", "nats.url"},
		{"MRS_NATS_RETRY_COUNT", "nats.retry_count"},
		{"MRS_SERVER_RATE_LIMIT_REQS", "server.rate_limit_reqs"},
		{"MRS_LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
