package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
)

type fakeStore struct {
	values  map[string]string
	expires map[string]time.Duration
	incrs   map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:  map[string]string{},
		expires: map[string]time.Duration{},
		incrs:   map[string]int64{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	f.values[key] = value.(string)
	f.expires[key] = ttl
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	value, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(value, nil)
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	if _, ok := f.values[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	f.expires[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(ctx context.Context, key string) *goredis.IntCmd {
	f.incrs[key]++
	return goredis.NewIntResult(f.incrs[key], nil)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	f.expires[key] = ttl
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.values[key]; ok {
			delete(f.values, key)
			removed++
		}
	}
	return goredis.NewIntResult(removed, nil)
}

func TestIdempotencyKeyNamespacing(t *testing.T) {
	client := &Client{store: newFakeStore()}
	assert.Equal(t, "tp:idempotency:orders:abc", client.IdempotencyKey("orders", "abc"))
	assert.Equal(t, "tp:rate_limit:login", client.RateLimitKey("login"))
}

func TestSetNXFirstWriterWins(t *testing.T) {
	client := &Client{store: newFakeStore()}
	ctx := context.Background()
	key := client.IdempotencyKey("orders", "req-1")

	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "pending", value)
}

func TestFixedWindowAllow(t *testing.T) {
	client := &Client{store: newFakeStore()}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := client.FixedWindowAllow(ctx, "login", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, count, err := client.FixedWindowAllow(ctx, "login", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(4), count)
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache.internal:6379", DB: 1, PoolSize: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6379", opts.Addr)
	assert.Equal(t, 1, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)
}
