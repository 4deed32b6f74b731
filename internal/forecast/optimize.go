package forecast

import (
	"math"
	"sort"
)

// nelderMead minimizes f from x0 with the downhill simplex method and returns
// the best point with its value.
func nelderMead(f func([]float64) float64, x0 []float64, step float64, maxIter int) ([]float64, float64) {
	n := len(x0)
	type vertex struct {
		x []float64
		v float64
	}
	eval := func(x []float64) vertex {
		v := f(x)
		if math.IsNaN(v) {
			v = math.Inf(1)
		}
		return vertex{x: x, v: v}
	}

	simplex := make([]vertex, n+1)
	simplex[0] = eval(append([]float64(nil), x0...))
	for i := 0; i < n; i++ {
		x := append([]float64(nil), x0...)
		x[i] += step
		simplex[i+1] = eval(x)
	}

	combine := func(a []float64, wa float64, b []float64, wb float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = wa*a[i] + wb*b[i]
		}
		return out
	}

	for iter := 0; iter < maxIter; iter++ {
		sort.Slice(simplex, func(i, j int) bool { return simplex[i].v < simplex[j].v })
		best, worst := simplex[0], simplex[n]
		if math.Abs(worst.v-best.v) <= 1e-10*(math.Abs(best.v)+1e-12) {
			break
		}

		centroid := make([]float64, n)
		for _, s := range simplex[:n] {
			for i := range centroid {
				centroid[i] += s.x[i] / float64(n)
			}
		}

		reflected := eval(combine(centroid, 2, worst.x, -1))
		switch {
		case reflected.v < best.v:
			expanded := eval(combine(centroid, 3, worst.x, -2))
			if expanded.v < reflected.v {
				simplex[n] = expanded
			} else {
				simplex[n] = reflected
			}
		case reflected.v < simplex[n-1].v:
			simplex[n] = reflected
		default:
			contracted := eval(combine(centroid, 0.5, worst.x, 0.5))
			if contracted.v < worst.v {
				simplex[n] = contracted
				continue
			}
			for i := 1; i <= n; i++ {
				simplex[i] = eval(combine(best.x, 0.5, simplex[i].x, 0.5))
			}
		}
	}

	sort.Slice(simplex, func(i, j int) bool { return simplex[i].v < simplex[j].v })
	return simplex[0].x, simplex[0].v
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

func finite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
