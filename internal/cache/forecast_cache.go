package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
)

const (
	forecastKeyPrefix = "barometer:forecast"
	scanBatchSize     = 100
)

// ForecastCache stores forecast results keyed by history content.
type ForecastCache interface {
	Get(ctx context.Context, key string) (*forecast.Result, bool, error)
	Set(ctx context.Context, key string, res *forecast.Result) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	return dialForecastCache(context.Background(), cfg)
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

// HistoryHash is the sha256 of the history rendered as an observations CSV.
func HistoryHash(obs []series.Observation) (string, error) {
	var buf bytes.Buffer
	if err := series.WriteCSV(&buf, obs); err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

// ForecastKey combines the history hash with the run parameters.
func ForecastKey(historyHash string, horizon int, opts forecast.Options) string {
	return fmt.Sprintf("%s:%s:h%d:c%t", forecastKeyPrefix, historyHash, horizon, opts.ClampBounds)
}

func (c *redisForecastCache) Get(ctx context.Context, key string) (*forecast.Result, bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var res forecast.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &res, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, key string, res *forecast.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	n, err := unlinkForecasts(ctx, c.client, forecastKeyPrefix)
	if err != nil {
		return err
	}
	log.Debug().Int("keys", n).Msg("forecast cache cleared")
	return nil
}

func (c *noopForecastCache) Get(context.Context, string) (*forecast.Result, bool, error) {
	return nil, false, nil
}

func (c *noopForecastCache) Set(context.Context, string, *forecast.Result) error { return nil }

func (c *noopForecastCache) InvalidateAll(context.Context) error { return nil }

// CachedForecast wraps forecast.Run with a cache lookup. Cache errors are
// logged and the forecast is computed directly.
func CachedForecast(ctx context.Context, c ForecastCache, history []series.Observation, horizon int, opts forecast.Options) (*forecast.Result, bool, error) {
	hash, err := HistoryHash(history)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash history: %w", err)
	}
	key := ForecastKey(hash, horizon, opts)

	if res, ok, err := c.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("forecast cache read failed")
	} else if ok {
		return res, true, nil
	}

	res := forecast.Run(history, horizon, opts)
	if err := c.Set(ctx, key, res); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("forecast cache write failed")
	}
	return res, false, nil
}
