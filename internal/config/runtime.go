// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for the advisory lock

	"github.com/bootkit/bootkit/internal/metrics"
	"github.com/bootkit/bootkit/pkg/lock"
)

// Logger builds the charm logger described by the log section.
func (c *Config) Logger(w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, &InvalidConfigError{Field: "log.level", Reason: err.Error()}
	}
	l := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          AppName,
		ReportTimestamp: true,
	})
	switch c.Log.Format {
	case "json":
		l.SetFormatter(log.JSONFormatter)
	case "logfmt":
		l.SetFormatter(log.LogfmtFormatter)
	default:
		l.SetFormatter(log.TextFormatter)
	}
	return l, nil
}

// Collector returns a metrics collector, or nil when metrics are disabled.
func (c *Config) Collector() *metrics.Collector {
	if !c.Metrics.Enabled {
		return nil
	}
	return metrics.NewCollector(c.Metrics.Namespace)
}

// LockProvider builds the bootstrap lock for the configured backend. The
// returned close function releases the backend client and must be called
// once the application no longer needs the lock.
func (c *Config) LockProvider() (lock.Provider, func() error, error) {
	noop := func() error { return nil }

	var (
		p       lock.Provider
		closeFn = noop
	)
	switch c.Lock.Backend {
	case LockNone:
		p = lock.Noop()
	case LockLocal:
		p = lock.NewLocal(c.Lock.Key)
	case LockRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.Lock.Redis.Addr,
			Password: c.Lock.Redis.Password,
			DB:       c.Lock.Redis.DB,
		})
		var opts []lock.RedisOption
		if c.Lock.Redis.TTL > 0 {
			opts = append(opts, lock.WithTTL(c.Lock.Redis.TTL))
		}
		p = lock.NewRedis(client, c.Lock.Key, opts...)
		closeFn = client.Close
	case LockPostgres:
		db, err := sqlx.Open("postgres", c.Lock.Postgres.DSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		p = lock.NewPostgres(db, c.Lock.Key)
		closeFn = db.Close
	default:
		return nil, noop, &InvalidConfigError{Field: "lock.backend", Reason: fmt.Sprintf("unknown backend %q", c.Lock.Backend)}
	}

	if c.Lock.Timeout > 0 {
		p = lock.WithTimeout(p, c.Lock.Timeout)
	}
	return p, closeFn, nil
}
