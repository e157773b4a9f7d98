package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssism/dhammi/internal/cttm"
)

func testRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("DHAMMI_TEST_REDIS")
	if addr == "" {
		t.Skip("DHAMMI_TEST_REDIS not set")
	}
	c := NewRedisCache(addr, "", 0, "dhammi:test:"+t.Name(), nil)
	t.Cleanup(func() {
		c.Delete(context.Background())
		c.Close()
	})
	require.NoError(t, c.Ping(context.Background()))
	return c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c := testRedis(t)
	ctx := context.Background()

	_, ok := c.Load(ctx)
	assert.False(t, ok)

	now := time.Now()
	c.Save(ctx, cttm.Snapshot{
		Facts:     []cttm.FactRecord{{Text: "shared", Confidence: 0.7}},
		FetchedAt: now,
		ExpiresAt: now.Add(time.Minute),
	})
	s, ok := c.Load(ctx)
	require.True(t, ok)
	require.Len(t, s.Facts, 1)
	assert.Equal(t, "shared", s.Facts[0].Text)

	c.Delete(ctx)
	_, ok = c.Load(ctx)
	assert.False(t, ok)
}

func TestRedisCacheUnreachableIsMiss(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", 0, "dhammi:test", nil)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := c.Load(ctx)
	assert.False(t, ok)
	c.Save(ctx, cttm.Snapshot{ExpiresAt: time.Now().Add(time.Minute)})
	c.Delete(ctx)
}
