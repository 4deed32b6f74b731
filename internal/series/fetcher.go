package series

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FetchResult holds everything fetched plus the series that failed.
type FetchResult struct {
	Observations []Observation
	Fetched      []string
	Failed       []string
}

// Fetcher runs a catalog against its providers with bounded concurrency.
type Fetcher struct {
	providers   map[Source]Provider
	concurrency int
}

func NewFetcher(concurrency int, providers ...Provider) *Fetcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	m := make(map[Source]Provider, len(providers))
	for _, p := range providers {
		m[p.Source()] = p
	}
	return &Fetcher{providers: m, concurrency: concurrency}
}

// CheckKeys verifies every provider's key. All providers are checked even
// when one fails.
func (f *Fetcher) CheckKeys(ctx context.Context) map[Source]error {
	var mu sync.Mutex
	out := make(map[Source]error, len(f.providers))
	var wg sync.WaitGroup
	for src, p := range f.providers {
		wg.Add(1)
		go func(src Source, p Provider) {
			defer wg.Done()
			err := p.CheckKey(ctx)
			mu.Lock()
			out[src] = err
			mu.Unlock()
		}(src, p)
	}
	wg.Wait()
	return out
}

// Fetch checks the provider keys, then downloads every spec. The key check is
// advisory. A failing series is recorded and skipped; only context
// cancellation aborts the run.
func (f *Fetcher) Fetch(ctx context.Context, specs []Spec) (*FetchResult, error) {
	start := time.Now()
	for src, err := range f.CheckKeys(ctx) {
		if err != nil {
			log.Warn().Err(err).Str("source", string(src)).Msg("api key check failed")
			continue
		}
		log.Debug().Str("source", string(src)).Msg("api key valid")
	}
	results := make([][]Observation, len(specs))
	errs := make([]error, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			p, ok := f.providers[spec.Source]
			if !ok {
				errs[i] = fmt.Errorf("no provider for source %s", spec.Source)
				return nil
			}
			obs, err := p.Fetch(gctx, spec)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &FetchResult{}
	for i, spec := range specs {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("series", spec.Label()).Msg("series fetch failed")
			res.Failed = append(res.Failed, spec.Label())
			continue
		}
		res.Fetched = append(res.Fetched, spec.Name)
		res.Observations = append(res.Observations, results[i]...)
	}

	log.Info().
		Int("fetched", len(res.Fetched)).
		Int("failed", len(res.Failed)).
		Int("observations", len(res.Observations)).
		Dur("duration", time.Since(start)).
		Msg("series fetch completed")

	return res, nil
}
