// SPDX-License-Identifier: MPL-2.0

//go:build integration

package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// checkTestcontainersAvailable reports whether a container provider can be
// reached. Provider detection can panic on hosts without a daemon.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func startRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping redis integration test: testcontainers provider not available")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_Integration(t *testing.T) {
	client := startRedis(t)
	ctx := t.Context()

	first := NewRedis(client, "bootkit:test", WithTTL(5*time.Second), WithRetryInterval(10*time.Millisecond))
	second := NewRedis(client, "bootkit:test", WithRetryInterval(10*time.Millisecond))

	held, err := first.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := second.Acquire(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("contended Acquire: expected deadline exceeded, got %v", err)
	}

	if err := held.Release(ctx); err != nil {
		t.Fatalf("Release() unexpected error: %v", err)
	}
	if err := held.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Errorf("double Release: expected ErrNotHeld, got %v", err)
	}

	next, err := second.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release unexpected error: %v", err)
	}
	if err := next.Release(ctx); err != nil {
		t.Errorf("Release() unexpected error: %v", err)
	}
}
