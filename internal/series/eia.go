package series

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultEIABaseURL is the EIA v2 API root.
const DefaultEIABaseURL = "https://api.eia.gov"

type eiaResponse struct {
	Response struct {
		Data []map[string]interface{} `json:"data"`
	} `json:"response"`
}

// EIAProvider reads route/facet series from the EIA v2 API.
type EIAProvider struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

func NewEIAProvider(client *resty.Client, baseURL, apiKey string, perSecond float64) *EIAProvider {
	if baseURL == "" {
		baseURL = DefaultEIABaseURL
	}
	return &EIAProvider{client: client, baseURL: baseURL, apiKey: apiKey, limiter: newLimiter(perSecond)}
}

func (p *EIAProvider) Source() Source { return SourceEIA }

func (p *EIAProvider) data(ctx context.Context, route string, params map[string]string) ([]map[string]interface{}, error) {
	q := make(map[string]string, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q["api_key"] = p.apiKey

	url := fmt.Sprintf("%s/v2/%s/data/", p.baseURL, strings.Trim(route, "/"))
	var out eiaResponse
	if err := get(ctx, p.client, p.limiter, url, q, &out); err != nil {
		return nil, err
	}
	return out.Response.Data, nil
}

func (p *EIAProvider) Fetch(ctx context.Context, spec Spec) ([]Observation, error) {
	rows, err := p.data(ctx, spec.Route, spec.Params)
	if err != nil {
		return nil, fmt.Errorf("eia %s: %w", spec.Route, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("eia %s: %w", spec.Route, ErrNoData)
	}

	// The value field is "value" for spot prices and "price" for retail sales.
	field := "price"
	if _, ok := rows[0]["value"]; ok {
		field = "value"
	}

	obs := make([]Observation, 0, len(rows))
	for _, row := range rows {
		period, _ := row["period"].(string)
		obs = append(obs, Observation{
			Date:   parseDate(period),
			Value:  parseValue(row[field]),
			Series: spec.Name,
			Source: SourceEIA,
		})
	}
	return obs, nil
}

func (p *EIAProvider) CheckKey(ctx context.Context) error {
	rows, err := p.data(ctx, "petroleum/pri/spt", map[string]string{
		"frequency":        "daily",
		"data[0]":          "value",
		"facets[series][]": "RWTC",
		"length":           "1",
	})
	if err != nil {
		return fmt.Errorf("eia key check: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("eia key check: %w", ErrNoData)
	}
	return nil
}
