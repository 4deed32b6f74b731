package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/series"
)

var (
	// ErrInsufficientHistory marks a series too short to forecast.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrFitFailed marks a model that could not be estimated.
	ErrFitFailed = errors.New("model fit failed")
)

// History floors for a series to be forecast at all.
const (
	MinObservations = 12
	MinPctChanges   = 6
	DefaultHorizon  = 24
)

// fallbackBand is the relative band used when the interval model fails.
const fallbackBand = 0.10

// Point is one projected month of a series.
type Point struct {
	Date     time.Time `json:"date"`
	Series   string    `json:"series"`
	Baseline float64   `json:"baseline"`
	Upper    float64   `json:"upper"`
	Lower    float64   `json:"lower"`
}

// Options tune a run.
type Options struct {
	// ClampBounds widens Upper and Lower so they always bracket Baseline.
	ClampBounds bool
	// Workers bounds how many series are fitted at once; zero means one.
	Workers int
}

// Result holds the projections plus the series that were left out or fell back.
type Result struct {
	Points []Point
	// Skipped names series with too little history.
	Skipped []string
	// Failed names model fits that fell back, as "<series> (<model>)".
	Failed []string
}

type seriesResult struct {
	points  []Point
	skipped bool
	failed  []string
}

// Run forecasts every series in history for horizon months. It does not
// touch the filesystem.
func Run(history []series.Observation, horizon int, opts Options) *Result {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	names, bySeries := series.Group(history)
	sort.Strings(names)

	out := make([]seriesResult, len(names))
	var g errgroup.Group
	g.SetLimit(max(opts.Workers, 1))
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			out[i] = forecastSeries(name, bySeries[name], horizon, opts)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{}
	for i, r := range out {
		if r.skipped {
			res.Skipped = append(res.Skipped, names[i])
			continue
		}
		res.Failed = append(res.Failed, r.failed...)
		res.Points = append(res.Points, r.points...)
	}

	log.Info().
		Int("series", len(names)).
		Int("points", len(res.Points)).
		Int("skipped", len(res.Skipped)).
		Int("fallbacks", len(res.Failed)).
		Int("horizon", horizon).
		Msg("forecast generated")

	return res
}

func forecastSeries(name string, obs []series.Observation, horizon int, opts Options) seriesResult {
	obs = append([]series.Observation(nil), obs...)
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	if len(obs) < MinObservations {
		log.Debug().Str("series", name).Err(ErrInsufficientHistory).Int("observations", len(obs)).Msg("series skipped")
		return seriesResult{skipped: true}
	}
	pct := pctChange(obs)
	if len(pct) < MinPctChanges {
		log.Debug().Str("series", name).Err(ErrInsufficientHistory).Int("changes", len(pct)).Msg("series skipped")
		return seriesResult{skipped: true}
	}

	last := obs[len(obs)-1]
	var res seriesResult

	baseline := make([]float64, horizon)
	if hw, err := fitHoltWinters(pct); err != nil {
		log.Warn().Str("series", name).Err(err).Msg("holt-winters failed, using flat baseline")
		res.failed = append(res.failed, fmt.Sprintf("%s (holt-winters)", name))
		for i := range baseline {
			baseline[i] = last.Value
		}
	} else {
		baseline = compound(last.Value, hw.forecast(horizon))
	}

	var upper, lower []float64
	if m, err := fitSarima(pct); err != nil {
		log.Warn().Str("series", name).Err(err).Msg("sarima failed, using ±10% band")
		res.failed = append(res.failed, fmt.Sprintf("%s (sarima)", name))
		upper = make([]float64, horizon)
		lower = make([]float64, horizon)
		for i, b := range baseline {
			upper[i] = b * (1 + fallbackBand)
			lower[i] = b * (1 - fallbackBand)
		}
	} else {
		_, lo, hi := m.forecast(horizon)
		upper = compound(last.Value, hi)
		lower = compound(last.Value, lo)
	}

	dates := futureMonths(last.Date, horizon)
	res.points = make([]Point, horizon)
	for i := range dates {
		p := Point{Date: dates[i], Series: name, Baseline: baseline[i], Upper: upper[i], Lower: lower[i]}
		if opts.ClampBounds {
			p.Upper = math.Max(p.Upper, p.Baseline)
			p.Lower = math.Min(p.Lower, p.Baseline)
		}
		res.points[i] = p
	}
	return res
}

// pctChange returns the percentage change between consecutive values. A zero
// predecessor yields ±Inf, which makes both model fits fall back.
func pctChange(obs []series.Observation) []float64 {
	if len(obs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(obs)-1)
	for i := 1; i < len(obs); i++ {
		prev := obs[i-1].Value
		out = append(out, (obs[i].Value/prev-1)*100)
	}
	return out
}

// compound applies each percentage change to the running value.
func compound(start float64, pct []float64) []float64 {
	out := make([]float64, len(pct))
	v := start
	for i, p := range pct {
		v *= 1 + p/100
		out[i] = v
	}
	return out
}

// futureMonths returns h month-start dates. The first is the earliest month
// start on or after last plus one calendar month.
func futureMonths(last time.Time, h int) []time.Time {
	y, m, d := last.Date()
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	if d > 1 {
		next = next.AddDate(0, 1, 0)
	}
	out := make([]time.Time, h)
	for i := range out {
		out[i] = next.AddDate(0, i, 0)
	}
	return out
}
