package stats

import (
	"cmp"
	"slices"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

// TopShapesByFrequency returns up to n shapes with the most attempts, ties by name.
func TopShapesByFrequency(aggs []model.ShapeAggregate, n int) []model.ShapeID {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	ranked := rankShapes(aggs, func(a, b model.ShapeAggregate) int {
		return cmp.Compare(b.Attempts, a.Attempts)
	})
	return ranked[:min(n, len(ranked))]
}

// SelectWeakShapes returns the top attempted shapes with the lowest mean
// accuracy. A non-positive top selects every attempted shape.
func SelectWeakShapes(aggs []model.ShapeAggregate, top int) map[model.ShapeID]struct{} {
	attempted := slices.DeleteFunc(slices.Clone(aggs), func(a model.ShapeAggregate) bool {
		return a.Attempts <= 0
	})
	ranked := rankShapes(attempted, func(a, b model.ShapeAggregate) int {
		return cmp.Compare(meanAccuracy(a), meanAccuracy(b))
	})
	if top > 0 {
		ranked = ranked[:min(top, len(ranked))]
	}
	weak := make(map[model.ShapeID]struct{}, len(ranked))
	for _, shape := range ranked {
		weak[shape] = struct{}{}
	}
	return weak
}

// rankShapes orders a copy of aggs by by, then by shape name.
func rankShapes(aggs []model.ShapeAggregate, by func(a, b model.ShapeAggregate) int) []model.ShapeID {
	sorted := slices.Clone(aggs)
	slices.SortFunc(sorted, func(a, b model.ShapeAggregate) int {
		return cmp.Or(by(a, b), cmp.Compare(a.Shape, b.Shape))
	})
	out := make([]model.ShapeID, len(sorted))
	for i, agg := range sorted {
		out[i] = agg.Shape
	}
	return out
}

func meanAccuracy(agg model.ShapeAggregate) float64 {
	if agg.Attempts == 0 {
		return 1
	}
	return agg.AccuracySum / float64(agg.Attempts)
}
