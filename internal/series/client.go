package series

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Provider fetches series from one upstream service.
type Provider interface {
	Source() Source
	Fetch(ctx context.Context, spec Spec) ([]Observation, error)
	// CheckKey makes one lightweight request to confirm the API key works.
	CheckKey(ctx context.Context) error
}

// NewHTTPClient returns the pooled client shared by every provider.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	return client
}

// newLimiter allows perSecond requests with a burst of one; zero disables limiting.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// get issues a rate-limited GET and fails on non-2xx answers.
func get(ctx context.Context, client *resty.Client, limiter *rate.Limiter, url string, params map[string]string, out interface{}) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: status %d", strings.SplitN(resp.Request.URL, "?", 2)[0], resp.StatusCode())
	}
	return nil
}

// parseValue coerces an upstream value to a float. Anything unparsable, such
// as FRED's "." placeholder, becomes NaN and is dropped by Normalize.
func parseValue(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// parseDate accepts daily, monthly and annual periods. Unparsable dates come
// back as the zero time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
