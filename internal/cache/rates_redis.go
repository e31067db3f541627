package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"TokenChart/internal/calculator"
	"TokenChart/internal/collector"
	"TokenChart/internal/model"
)

var _ collector.RateSource = (*RateCache)(nil)

// RateCache is a read-through Redis cache in front of a RateSource.
// Misses are resolved with one batched call to the inner source.
type RateCache struct {
	rdb    *redis.Client
	inner  collector.RateSource
	ttl    time.Duration
	logger *zap.Logger
}

func NewRateCache(rdb *redis.Client, inner collector.RateSource, ttl time.Duration, logger *zap.Logger) *RateCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateCache{rdb: rdb, inner: inner, ttl: ttl, logger: logger}
}

func (c *RateCache) Name() string { return "redis+" + c.inner.Name() }

func rateKey(code string) string {
	return fmt.Sprintf("rates:%s:%s", calculator.BaseCurrency, code)
}

func (c *RateCache) FetchRates(ctx context.Context, currencies []string) (model.RateMap, error) {
	rates := model.RateMap{}
	if len(currencies) == 0 {
		return rates, nil
	}

	codes := make([]string, len(currencies))
	keys := make([]string, len(currencies))
	for i, cur := range currencies {
		codes[i] = calculator.NormalizeCurrency(cur)
		keys[i] = rateKey(codes[i])
	}

	var misses []string
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("rate cache read failed", zap.Error(err))
		misses = codes
	} else {
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				misses = append(misses, codes[i])
				continue
			}
			rate, err := strconv.ParseFloat(s, 64)
			if err != nil || rate <= 0 {
				misses = append(misses, codes[i])
				continue
			}
			rates[codes[i]] = rate
		}
	}
	if len(misses) == 0 {
		return rates, nil
	}

	fresh, err := c.inner.FetchRates(ctx, misses)
	if err != nil {
		return nil, err
	}
	pipe := c.rdb.Pipeline()
	for code, rate := range fresh {
		rates[code] = rate
		pipe.Set(ctx, rateKey(code), strconv.FormatFloat(rate, 'g', -1, 64), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("rate cache write failed", zap.Error(err))
	}
	return rates, nil
}
