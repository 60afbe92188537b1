// Package align scores strokes against guide paths with dynamic time warping.
package align

import (
	"math"

	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

// DTW aligns user against ref. Cost is the cumulative cost of the optimal
// warping path divided by len(user)+len(ref); NormalizedCost is left for the
// caller to fill because it depends on the guide scale.
func DTW(user, ref []model.Point) model.AlignmentResult {
	n, m := len(user), len(ref)
	if n == 0 || m == 0 {
		return model.AlignmentResult{Cost: math.Inf(1), NormalizedCost: 1}
	}

	d := make([]float64, n*m)
	at := func(i, j int) float64 { return d[i*m+j] }

	d[0] = geometry.Distance(user[0], ref[0])
	for i := 1; i < n; i++ {
		d[i*m] = at(i-1, 0) + geometry.Distance(user[i], ref[0])
	}
	for j := 1; j < m; j++ {
		d[j] = at(0, j-1) + geometry.Distance(user[0], ref[j])
	}
	for i := 1; i < n; i++ {
		for j := 1; j < m; j++ {
			cost := geometry.Distance(user[i], ref[j])
			d[i*m+j] = cost + min3(at(i-1, j), at(i, j-1), at(i-1, j-1))
		}
	}

	return model.AlignmentResult{
		Cost:         at(n-1, m-1) / float64(n+m),
		MatchedPairs: backtrack(d, n, m),
	}
}

// backtrack walks the cumulative matrix from the last cell to (0,0),
// preferring the diagonal on ties.
func backtrack(d []float64, n, m int) []model.Pair {
	pairs := make([]model.Pair, 0, n+m)
	i, j := n-1, m-1
	pairs = append(pairs, model.Pair{User: i, Ref: j})
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			j--
		case j == 0:
			i--
		default:
			diag := d[(i-1)*m+j-1]
			up := d[(i-1)*m+j]
			left := d[i*m+j-1]
			switch {
			case diag <= up && diag <= left:
				i, j = i-1, j-1
			case up <= left:
				i--
			default:
				j--
			}
		}
		pairs = append(pairs, model.Pair{User: i, Ref: j})
	}
	for l, r := 0, len(pairs)-1; l < r; l, r = l+1, r-1 {
		pairs[l], pairs[r] = pairs[r], pairs[l]
	}
	return pairs
}

func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
