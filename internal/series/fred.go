package series

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultFREDBaseURL is the FRED API root.
const DefaultFREDBaseURL = "https://api.stlouisfed.org"

const fredKeyCheckSeries = "PPIACO"

type fredResponse struct {
	Observations []struct {
		Date  string      `json:"date"`
		Value interface{} `json:"value"`
	} `json:"observations"`
}

// FREDProvider reads series observations from FRED.
type FREDProvider struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

func NewFREDProvider(client *resty.Client, baseURL, apiKey string, perSecond float64) *FREDProvider {
	if baseURL == "" {
		baseURL = DefaultFREDBaseURL
	}
	return &FREDProvider{client: client, baseURL: baseURL, apiKey: apiKey, limiter: newLimiter(perSecond)}
}

func (p *FREDProvider) Source() Source { return SourceFRED }

func (p *FREDProvider) observations(ctx context.Context, seriesID string, extra map[string]string) (*fredResponse, error) {
	params := map[string]string{
		"series_id": seriesID,
		"api_key":   p.apiKey,
		"file_type": "json",
	}
	for k, v := range extra {
		params[k] = v
	}
	var out fredResponse
	if err := get(ctx, p.client, p.limiter, p.baseURL+"/fred/series/observations", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *FREDProvider) Fetch(ctx context.Context, spec Spec) ([]Observation, error) {
	resp, err := p.observations(ctx, spec.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", spec.ID, err)
	}
	if len(resp.Observations) == 0 {
		return nil, fmt.Errorf("fred %s: %w", spec.ID, ErrNoData)
	}
	obs := make([]Observation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		obs = append(obs, Observation{
			Date:   parseDate(o.Date),
			Value:  parseValue(o.Value),
			Series: spec.Name,
			Source: SourceFRED,
		})
	}
	return obs, nil
}

func (p *FREDProvider) CheckKey(ctx context.Context) error {
	resp, err := p.observations(ctx, fredKeyCheckSeries, map[string]string{"limit": "1"})
	if err != nil {
		return fmt.Errorf("fred key check: %w", err)
	}
	if len(resp.Observations) == 0 {
		return fmt.Errorf("fred key check: %w", ErrNoData)
	}
	return nil
}
