// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultRedisTTL   = 30 * time.Second
	defaultRedisRetry = 100 * time.Millisecond
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type (
	// Redis is a lock backed by a single Redis key set with NX and an expiry.
	Redis struct {
		client redis.UniversalClient
		key    string
		ttl    time.Duration
		retry  time.Duration
	}

	// RedisOption configures a Redis lock.
	RedisOption func(*Redis)

	redisLock struct {
		r     *Redis
		token string
	}
)

// WithTTL sets the key expiry that bounds how long a crashed holder blocks
// others.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithRetryInterval sets the polling interval while the key is taken.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.retry = d
		}
	}
}

// NewRedis creates a Redis lock on key.
func NewRedis(client redis.UniversalClient, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key, ttl: defaultRedisTTL, retry: defaultRedisRetry}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire implements Provider. It polls until the key is set or ctx is done.
func (r *Redis) Acquire(ctx context.Context) (Lock, error) {
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			return nil, &LockError{Backend: "redis", Key: r.key, Op: "acquire", Err: err}
		}
		if ok {
			return &redisLock{r: r, token: token}, nil
		}

		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &LockError{Backend: "redis", Key: r.key, Op: "acquire", Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

// Release implements Lock. It returns ErrNotHeld when the key expired or was
// taken over by another holder.
func (l *redisLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.r.client, []string{l.r.key}, l.token).Int64()
	if err != nil {
		return &LockError{Backend: "redis", Key: l.r.key, Op: "release", Err: err}
	}
	if n == 0 {
		return &LockError{Backend: "redis", Key: l.r.key, Op: "release", Err: ErrNotHeld}
	}
	return nil
}
