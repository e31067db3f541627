package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenChart/internal/collector"
	"TokenChart/internal/model"
)

func newTestRedis(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		rdb.Del(context.Background(), rateKey("sol"), rateKey("usdc"))
		rdb.Close()
	})
	return rdb
}

func TestRateCache_ReadThrough(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	rdb.Del(ctx, rateKey("sol"), rateKey("usdc"))

	inner := &collector.MockSource{RateTable: model.RateMap{"sol": 150, "usdc": 1}}
	c := NewRateCache(rdb, inner, time.Minute, nil)

	rates, err := c.FetchRates(ctx, []string{"sol", "usdc"})
	require.NoError(t, err)
	assert.Equal(t, model.RateMap{"sol": 150, "usdc": 1}, rates)
	assert.Equal(t, 1, inner.RateCalls)

	rates, err = c.FetchRates(ctx, []string{"SOL", "usdc"})
	require.NoError(t, err)
	assert.Equal(t, model.RateMap{"sol": 150, "usdc": 1}, rates)
	assert.Equal(t, 1, inner.RateCalls, "second lookup served from redis")

	ttl, err := rdb.TTL(ctx, rateKey("sol")).Result()
	require.NoError(t, err)
	assert.Greater(t, int64(ttl), int64(0))
}

func TestRateCache_InnerErrorPropagates(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()
	rdb.Del(ctx, rateKey("sol"))

	inner := &collector.MockSource{RateErr: errors.New("upstream down")}
	_, err := NewRateCache(rdb, inner, time.Minute, nil).FetchRates(ctx, []string{"sol"})
	assert.Error(t, err)
}

// newDownRedis returns a client pointed at a port nothing listens on.
func newDownRedis(t *testing.T) *redis.Client {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	rdb := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRateCache_RedisDownFallsBackToInner(t *testing.T) {
	inner := &collector.MockSource{RateTable: model.RateMap{"sol": 150, "usdc": 1}}
	c := NewRateCache(newDownRedis(t), inner, time.Minute, nil)

	rates, err := c.FetchRates(context.Background(), []string{"SOL", "usdc"})
	require.NoError(t, err)
	assert.Equal(t, model.RateMap{"sol": 150, "usdc": 1}, rates)
	assert.Equal(t, 1, inner.RateCalls)
}

func TestRateCache_RedisDownInnerErrorPropagates(t *testing.T) {
	inner := &collector.MockSource{RateErr: errors.New("upstream down")}
	rates, err := NewRateCache(newDownRedis(t), inner, time.Minute, nil).FetchRates(context.Background(), []string{"sol"})
	assert.Error(t, err)
	assert.Nil(t, rates)
	assert.Equal(t, 1, inner.RateCalls)
}

func TestRateCache_EmptyInput(t *testing.T) {
	inner := &collector.MockSource{}
	rates, err := NewRateCache(nil, inner, time.Minute, nil).FetchRates(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rates)
	assert.Zero(t, inner.RateCalls)
}
