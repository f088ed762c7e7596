package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Platform/pkg/config"
)

// skipIfNoRedis skips the test when Redis is unavailable.
func skipIfNoRedis(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(config.RedisConfig{Addr: addr, DB: 15, PoolSize: 2})
	if err != nil {
		t.Skipf("skipping: redis unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetGetFlush(t *testing.T) {
	c := skipIfNoRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "kwtest:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "kwtest:b", []byte("2"), time.Minute))

	got, err := c.Get(ctx, "kwtest:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	deleted, err := c.FlushByPattern(ctx, "kwtest:*")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = c.Get(ctx, "kwtest:a")
	assert.True(t, IsNilError(err))
}
