package forecast

import (
	"fmt"
	"math"
)

const seasonLength = 12

// holtWinters is a fitted additive trend and additive seasonal smoother.
type holtWinters struct {
	alpha, beta, gamma float64
	level, trend       float64
	season             []float64 // last seasonLength seasonal terms, oldest first
	sse                float64
}

// fitHoltWinters chooses the smoothing parameters minimizing the in-sample
// one-step squared error. It needs two full seasons.
func fitHoltWinters(y []float64) (*holtWinters, error) {
	if len(y) < 2*seasonLength {
		return nil, fmt.Errorf("%w: holt-winters needs %d points, have %d", ErrFitFailed, 2*seasonLength, len(y))
	}
	if !finite(y) {
		return nil, fmt.Errorf("%w: holt-winters input has non-finite values", ErrFitFailed)
	}

	grid := []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	best := math.Inf(1)
	var start []float64
	for _, a := range grid {
		for _, b := range grid {
			for _, g := range grid {
				if sse := smooth(y, a, b, g).sse; sse < best {
					best = sse
					start = []float64{logit(a), logit(b), logit(g)}
				}
			}
		}
	}
	if start == nil {
		return nil, fmt.Errorf("%w: holt-winters objective is not finite", ErrFitFailed)
	}

	x, _ := nelderMead(func(p []float64) float64 {
		return smooth(y, sigmoid(p[0]), sigmoid(p[1]), sigmoid(p[2])).sse
	}, start, 0.5, 400)

	hw := smooth(y, sigmoid(x[0]), sigmoid(x[1]), sigmoid(x[2]))
	if math.IsNaN(hw.sse) || math.IsInf(hw.sse, 0) {
		return nil, fmt.Errorf("%w: holt-winters diverged", ErrFitFailed)
	}
	return hw, nil
}

// smooth runs the recursions from a first-two-seasons initialization.
func smooth(y []float64, alpha, beta, gamma float64) *holtWinters {
	m := seasonLength
	var first, second float64
	for i := 0; i < m; i++ {
		first += y[i]
		second += y[m+i]
	}
	first /= float64(m)
	second /= float64(m)

	level := first
	trend := (second - first) / float64(m)
	season := make([]float64, m)
	for i := 0; i < m; i++ {
		season[i] = y[i] - first
	}

	// season is a ring indexed by t mod m
	var sse float64
	for t, v := range y {
		s := season[t%m]
		e := v - (level + trend + s)
		sse += e * e

		prev := level
		level = alpha*(v-s) + (1-alpha)*(level+trend)
		trend = beta*(level-prev) + (1-beta)*trend
		season[t%m] = gamma*(v-level) + (1-gamma)*s
	}

	ordered := make([]float64, m)
	for i := 0; i < m; i++ {
		ordered[i] = season[(len(y)+i)%m]
	}
	return &holtWinters{
		alpha: alpha, beta: beta, gamma: gamma,
		level: level, trend: trend,
		season: ordered,
		sse:    sse,
	}
}

// forecast returns the next h values.
func (hw *holtWinters) forecast(h int) []float64 {
	out := make([]float64, h)
	for i := 0; i < h; i++ {
		out[i] = hw.level + float64(i+1)*hw.trend + hw.season[i%seasonLength]
	}
	return out
}
