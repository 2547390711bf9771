package main

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/recorder"
	"PatternSentinel/internal/scanner"
	"PatternSentinel/internal/scheduler"
	"PatternSentinel/internal/strategy"
)

func buildFetcher(ctx context.Context, cfg *config.Config, m *metrics.Registry) collector.Fetcher {
	var f collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		f = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: 100}
	default:
		f = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RateLimit, cfg.DataSource.Burst)
	}
	log.Info().Str("source", f.Name()).Msg("data source selected")

	if cfg.Cache.RedisAddr == "" {
		return f
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable, bar cache disabled")
		_ = client.Close()
		return f
	}
	log.Info().Str("addr", cfg.Cache.RedisAddr).Dur("ttl", cfg.Cache.TTL).Msg("bar cache enabled")
	return collector.NewCachedFetcher(f, client, cfg.Cache.TTL, m)
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func buildJob(ctx context.Context, cfg *config.Config, m *metrics.Registry, rec recorder.Recorder) (*scheduler.Job, error) {
	engine, err := strategy.NewEngine(cfg.Detection)
	if err != nil {
		return nil, err
	}
	tfs, err := cfg.ScanTimeframes()
	if err != nil {
		return nil, err
	}
	patterns, err := cfg.ScanPatterns()
	if err != nil {
		return nil, err
	}
	fetcher := buildFetcher(ctx, cfg, m)
	return &scheduler.Job{
		Collector:  collector.NewCollector(fetcher, cfg.Detection, cfg.DataSource.Burst, m),
		Scanner:    scanner.New(engine, cfg.Scan.Workers, cfg.Scan.TaskTimeout, m),
		Recorder:   rec,
		Metrics:    m,
		Tickers:    cfg.Scan.Tickers,
		Timeframes: tfs,
		Patterns:   patterns,
	}, nil
}
