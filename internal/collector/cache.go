package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/model"
)

// CachedFetcher keeps fetched bars in Redis for a TTL. Redis failures are
// logged and fall through to the wrapped fetcher.
type CachedFetcher struct {
	next    Fetcher
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Registry
}

// NewCachedFetcher wraps next with a Redis cache. m may be nil.
func NewCachedFetcher(next Fetcher, client *redis.Client, ttl time.Duration, m *metrics.Registry) *CachedFetcher {
	return &CachedFetcher{next: next, client: client, ttl: ttl, metrics: m}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func cacheKey(source, symbol string, tf model.Timeframe, count int) string {
	return fmt.Sprintf("sentinel:bars:%s:%s:%s:%d", source, symbol, tf, count)
}

func (c *CachedFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	key := cacheKey(c.next.Name(), symbol, tf, count)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var bars []model.OHLCV
		if jerr := json.Unmarshal(raw, &bars); jerr == nil {
			c.metrics.ObserveCache(true)
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Str("key", key).Msg("bar cache read failed")
	}
	c.metrics.ObserveCache(false)

	bars, err := c.next.FetchBars(ctx, symbol, tf, count)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(bars)
	if err != nil {
		return bars, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("bar cache write failed")
	}
	return bars, nil
}
