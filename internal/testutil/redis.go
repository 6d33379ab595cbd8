package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTestRedisAddr is used when GUARDIAN_TEST_REDIS_ADDR is not set.
const DefaultTestRedisAddr = "localhost:6379"

// SetupTestRedis returns a client for the test Redis server, skipping the
// test when none is reachable. The client is closed when the test ends.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("GUARDIAN_TEST_REDIS_ADDR")
	if addr == "" {
		addr = DefaultTestRedisAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return client
}
