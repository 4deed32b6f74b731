package forecast

import (
	"fmt"
	"math"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.959964

// sarima is a fitted SARIMA(1,1,1)(1,1,1,12) model estimated by conditional
// sum of squares.
type sarima struct {
	phi, theta, sphi, stheta float64
	sigma2                   float64

	ar    []float64 // full AR polynomial on the levels, differencing included, ar[0] = 1
	ma    []float64 // MA polynomial, ma[0] = 1
	y     []float64
	resid []float64 // residuals aligned with y, zero where conditioned away
}

// minSarimaDiffs is the smallest differenced sample the fit accepts: one
// seasonal lag block plus one point per parameter.
const minSarimaDiffs = seasonLength + 1 + 4

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// lagPoly returns 1 + c*B^lag.
func lagPoly(c float64, lag int) []float64 {
	p := make([]float64, lag+1)
	p[0] = 1
	p[lag] = c
	return p
}

// difference applies (1-B)(1-B^12).
func difference(y []float64) []float64 {
	d := make([]float64, 0, len(y))
	for t := 1; t < len(y); t++ {
		d = append(d, y[t]-y[t-1])
	}
	s := make([]float64, 0, len(d))
	for t := seasonLength; t < len(d); t++ {
		s = append(s, d[t]-d[t-seasonLength])
	}
	return s
}

// armaPolys builds the stationary AR and MA polynomials for the given
// coefficients.
func armaPolys(phi, theta, sphi, stheta float64) (ar, ma []float64) {
	ar = polyMul(lagPoly(-phi, 1), lagPoly(-sphi, seasonLength))
	ma = polyMul(lagPoly(theta, 1), lagPoly(stheta, seasonLength))
	return ar, ma
}

// css returns the conditional residuals of w and their sum of squares. The
// first len(ar)-1 residuals are conditioned to zero.
func css(w, ar, ma []float64) ([]float64, float64) {
	p := len(ar) - 1
	e := make([]float64, len(w))
	var sse float64
	for t := p; t < len(w); t++ {
		v := 0.0
		for i, c := range ar {
			v += c * w[t-i]
		}
		for j := 1; j < len(ma); j++ {
			if t-j >= 0 {
				v -= ma[j] * e[t-j]
			}
		}
		e[t] = v
		sse += v * v
	}
	return e, sse
}

func fitSarima(y []float64) (*sarima, error) {
	if !finite(y) {
		return nil, fmt.Errorf("%w: sarima input has non-finite values", ErrFitFailed)
	}
	w := difference(y)
	if len(w) < minSarimaDiffs {
		return nil, fmt.Errorf("%w: sarima needs %d differenced points, have %d", ErrFitFailed, minSarimaDiffs, len(w))
	}

	objective := func(p []float64) float64 {
		ar, ma := armaPolys(math.Tanh(p[0]), math.Tanh(p[1]), math.Tanh(p[2]), math.Tanh(p[3]))
		_, sse := css(w, ar, ma)
		return sse
	}
	x, sse := nelderMead(objective, []float64{0.1, 0.1, 0.1, 0.1}, 0.3, 500)
	if math.IsNaN(sse) || math.IsInf(sse, 0) {
		return nil, fmt.Errorf("%w: sarima objective is not finite", ErrFitFailed)
	}

	m := &sarima{
		phi:    math.Tanh(x[0]),
		theta:  math.Tanh(x[1]),
		sphi:   math.Tanh(x[2]),
		stheta: math.Tanh(x[3]),
		y:      y,
	}
	arma, ma := armaPolys(m.phi, m.theta, m.sphi, m.stheta)
	e, sse := css(w, arma, ma)
	n := len(w) - (len(arma) - 1)
	m.sigma2 = sse / float64(n)

	m.ar = polyMul(arma, polyMul(lagPoly(-1, 1), lagPoly(-1, seasonLength)))
	m.ma = ma

	// w[k] is y[k+13]
	offset := 1 + seasonLength
	m.resid = make([]float64, len(y))
	copy(m.resid[offset:], e)
	return m, nil
}

// forecast returns the point forecast and the 95% interval for h steps.
func (m *sarima) forecast(h int) (mean, lower, upper []float64) {
	n := len(m.y)
	y := append(append([]float64(nil), m.y...), make([]float64, h)...)
	e := append(append([]float64(nil), m.resid...), make([]float64, h)...)

	mean = make([]float64, h)
	for t := n; t < n+h; t++ {
		v := 0.0
		for i := 1; i < len(m.ar); i++ {
			if t-i >= 0 {
				v -= m.ar[i] * y[t-i]
			}
		}
		for j := 1; j < len(m.ma); j++ {
			if t-j >= 0 {
				v += m.ma[j] * e[t-j]
			}
		}
		y[t] = v
		mean[t-n] = v
	}

	psi := m.psiWeights(h)
	lower = make([]float64, h)
	upper = make([]float64, h)
	var acc float64
	for k := 0; k < h; k++ {
		acc += psi[k] * psi[k]
		half := z95 * math.Sqrt(m.sigma2*acc)
		lower[k] = mean[k] - half
		upper[k] = mean[k] + half
	}
	return mean, lower, upper
}

// psiWeights expands ma(B)/ar(B) to its first h terms.
func (m *sarima) psiWeights(h int) []float64 {
	psi := make([]float64, h)
	for j := 0; j < h; j++ {
		v := 0.0
		if j == 0 {
			v = 1
		} else if j < len(m.ma) {
			v = m.ma[j]
		}
		for i := 1; i <= j && i < len(m.ar); i++ {
			v -= m.ar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
