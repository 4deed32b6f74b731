package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/forecast"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
)

type memoryCache struct {
	entries map[string]*forecast.Result
	sets    int
}

func (m *memoryCache) Get(_ context.Context, key string) (*forecast.Result, bool, error) {
	res, ok := m.entries[key]
	return res, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, res *forecast.Result) error {
	m.entries[key] = res
	m.sets++
	return nil
}

func (m *memoryCache) InvalidateAll(context.Context) error {
	m.entries = map[string]*forecast.Result{}
	return nil
}

func history(n int) []series.Observation {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]series.Observation, n)
	for i := range out {
		out[i] = series.Observation{Date: start.AddDate(0, i, 0), Value: float64(100 + i), Series: "PPI", Source: series.SourceFRED}
	}
	return out
}

func TestForecastKey(t *testing.T) {
	a, err := HistoryHash(history(14))
	require.NoError(t, err)
	b, err := HistoryHash(history(14))
	require.NoError(t, err)
	c, err := HistoryHash(history(15))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
	assert.NotEqual(t, ForecastKey(a, 24, forecast.Options{}), ForecastKey(a, 12, forecast.Options{}))
	assert.NotEqual(t, ForecastKey(a, 24, forecast.Options{}), ForecastKey(a, 24, forecast.Options{ClampBounds: true}))
}

func TestCachedForecast(t *testing.T) {
	ctx := context.Background()
	mem := &memoryCache{entries: map[string]*forecast.Result{}}

	first, hit, err := CachedForecast(ctx, mem, history(14), 3, forecast.Options{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first.Points, 3)

	second, hit, err := CachedForecast(ctx, mem, history(14), 3, forecast.Options{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, 1, mem.sets)

	_, hit, err = CachedForecast(ctx, mem, history(15), 3, forecast.Options{})
	require.NoError(t, err)
	assert.False(t, hit, "changed history misses")
}

func TestNoopForecastCache(t *testing.T) {
	c, err := NewForecastCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	res, hit, err := CachedForecast(context.Background(), c, history(14), 2, forecast.Options{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, res.Points, 2)
	assert.NoError(t, c.InvalidateAll(context.Background()))
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, redisClientTag, opts.ClientName)
	assert.Equal(t, redisIOTimeout, opts.ReadTimeout)
	assert.Equal(t, redisPoolSize, opts.PoolSize)

	opts, err = redisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = redisOptions(config.CacheConfig{RedisURL: "redis://:pw@example:6379/3"})
	require.NoError(t, err)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, redisDialTimeout, opts.DialTimeout)

	_, err = redisOptions(config.CacheConfig{RedisURL: "http://bad"})
	assert.Error(t, err)
}

func TestForecastTTL(t *testing.T) {
	assert.Equal(t, defaultForecastTTL, forecastTTL(config.CacheConfig{}))
	assert.Equal(t, defaultForecastTTL, forecastTTL(config.CacheConfig{ForecastTTLSeconds: -5}))
	assert.Equal(t, 90*time.Second, forecastTTL(config.CacheConfig{ForecastTTLSeconds: 90}))
}

func TestNewForecastCache_Unreachable(t *testing.T) {
	_, err := NewForecastCache(config.CacheConfig{Enabled: true, RedisHost: "127.0.0.1", RedisPort: "1"})
	assert.Error(t, err)
}
