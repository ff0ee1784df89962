// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	LockNone     LockBackend = "none"
	LockLocal    LockBackend = "local"
	LockRedis    LockBackend = "redis"
	LockPostgres LockBackend = "postgres"
)

// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

type (
	// LockBackend selects the bootstrap lock implementation.
	LockBackend string

	// Config is the bootkit configuration.
	Config struct {
		// Manifest is the default manifest path for commands that need one.
		Manifest string `json:"manifest" mapstructure:"manifest"`
		// ScopeID qualifies colliding exposed names. Empty means random.
		ScopeID string `json:"scope_id" mapstructure:"scope_id"`
		// PruneDisabled drops disabled modules from the bootstrap order.
		PruneDisabled bool          `json:"prune_disabled" mapstructure:"prune_disabled"`
		Log           LogConfig     `json:"log" mapstructure:"log"`
		Metrics       MetricsConfig `json:"metrics" mapstructure:"metrics"`
		Lock          LockConfig    `json:"lock" mapstructure:"lock"`
	}

	// LogConfig configures the charm logger.
	LogConfig struct {
		Level  string `json:"level" mapstructure:"level"`
		Format string `json:"format" mapstructure:"format"`
	}

	// MetricsConfig configures the Prometheus collector.
	MetricsConfig struct {
		Enabled   bool   `json:"enabled" mapstructure:"enabled"`
		Namespace string `json:"namespace" mapstructure:"namespace"`
	}

	// LockConfig configures the bootstrap lock.
	LockConfig struct {
		Backend  LockBackend    `json:"backend" mapstructure:"backend"`
		Key      string         `json:"key" mapstructure:"key"`
		Timeout  time.Duration  `json:"timeout" mapstructure:"timeout"`
		Redis    RedisConfig    `json:"redis" mapstructure:"redis"`
		Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	}

	// RedisConfig addresses a Redis server.
	RedisConfig struct {
		Addr     string        `json:"addr" mapstructure:"addr"`
		Password string        `json:"password" mapstructure:"password"`
		DB       int           `json:"db" mapstructure:"db"`
		TTL      time.Duration `json:"ttl" mapstructure:"ttl"`
	}

	// PostgresConfig addresses a PostgreSQL server.
	PostgresConfig struct {
		DSN string `json:"dsn" mapstructure:"dsn"`
	}

	// InvalidConfigError reports a field combination the schema cannot
	// express.
	InvalidConfigError struct {
		Field  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "bootkit",
		},
		Lock: LockConfig{
			Backend: LockLocal,
			Key:     "bootkit:bootstrap",
			Timeout: 30 * time.Second,
			Redis: RedisConfig{
				Addr: "localhost:6379",
				TTL:  30 * time.Second,
			},
		},
	}
}

// Validate checks constraints between fields.
func (c *Config) Validate() error {
	switch c.Lock.Backend {
	case LockNone, LockLocal:
	case LockRedis:
		if c.Lock.Redis.Addr == "" {
			return &InvalidConfigError{Field: "lock.redis.addr", Reason: "required when lock.backend is redis"}
		}
	case LockPostgres:
		if c.Lock.Postgres.DSN == "" {
			return &InvalidConfigError{Field: "lock.postgres.dsn", Reason: "required when lock.backend is postgres"}
		}
	default:
		return &InvalidConfigError{Field: "lock.backend", Reason: fmt.Sprintf("unknown backend %q", c.Lock.Backend)}
	}
	if c.Lock.Timeout < 0 {
		return &InvalidConfigError{Field: "lock.timeout", Reason: "must not be negative"}
	}
	return nil
}
