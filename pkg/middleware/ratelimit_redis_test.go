package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	client, _ := setupTestRedis(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lim := NewRedisLimiter(client, 2, time.Minute)
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := lim.Allow(ctx, "user:alice")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i)
	}

	ok, err := lim.Allow(ctx, "user:bob")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, err = lim.Allow(ctx, "user:alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_SetsExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	lim := NewRedisLimiter(client, 5, 30*time.Second)

	_, err := lim.Allow(context.Background(), "ip:10.0.0.1")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestRedisLimiterForRate_Window(t *testing.T) {
	client, _ := setupTestRedis(t)

	assert.Equal(t, 5*time.Second, NewRedisLimiterForRate(client, 2, 10).window)
	assert.Equal(t, time.Second, NewRedisLimiterForRate(client, 100, 1).window)
}

func TestRateLimitWith_FailsOpenWhenRedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	var buf bytes.Buffer
	handler := RateLimitWith(NewRedisLimiter(client, 1, time.Minute), newBufferLogger(&buf))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "rate limiter unavailable")
}
