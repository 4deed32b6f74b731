package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
)

const (
	defaultForecastTTL = 24 * time.Hour
	redisDialTimeout   = 5 * time.Second
	// forecast payloads are a few hundred KB of JSON at most
	redisIOTimeout = 3 * time.Second
	redisPoolSize  = 4
	redisClientTag = "pricing-forecast"
)

// forecastTTL is the configured entry lifetime, defaulting to a day.
func forecastTTL(cfg config.CacheConfig) time.Duration {
	if ttl := cfg.ForecastTTL(); ttl > 0 {
		return ttl
	}
	return defaultForecastTTL
}

// redisOptions builds client options from REDIS_URL, or host and port when
// no URL is set. Timeouts and pool size are tuned for the barometer run,
// which makes one read and one write per refresh.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		host, port := cfg.RedisHost, cfg.RedisPort
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	opts.ClientName = redisClientTag
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout
	opts.PoolSize = redisPoolSize
	return opts, nil
}

// dialForecastCache connects and pings before handing out the cache, so an
// unreachable server is reported at startup rather than on the first run.
func dialForecastCache(ctx context.Context, cfg config.CacheConfig) (*redisForecastCache, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}

	return &redisForecastCache{client: client, ttl: forecastTTL(cfg)}, nil
}

// unlinkForecasts removes every cached forecast under prefix.
func unlinkForecasts(ctx context.Context, client *redis.Client, prefix string) (int, error) {
	var batch []string
	removed := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink failed: %w", err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := client.Scan(ctx, 0, prefix+":*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	return removed, flush()
}
