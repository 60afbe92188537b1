package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

func TestTopShapesByFrequency(t *testing.T) {
	aggs := []model.ShapeAggregate{
		{Shape: "square", Attempts: 4},
		{Shape: "circle", Attempts: 4},
		{Shape: "line", Attempts: 1},
	}
	assert.Equal(t, []model.ShapeID{"circle", "square"}, TopShapesByFrequency(aggs, 2))
	assert.Equal(t, model.ShapeID("square"), aggs[0].Shape, "input must not be reordered")
	assert.Nil(t, TopShapesByFrequency(nil, 3))
}

func TestSelectWeakShapes(t *testing.T) {
	aggs := []model.ShapeAggregate{
		{Shape: "circle", Attempts: 2, AccuracySum: 1.8},
		{Shape: "star", Attempts: 2, AccuracySum: 0.6},
		{Shape: "wave", Attempts: 1, AccuracySum: 0.5},
		{Shape: "heart"},
	}
	assert.Equal(t, map[model.ShapeID]struct{}{"star": {}, "wave": {}}, SelectWeakShapes(aggs, 2))
	assert.Len(t, SelectWeakShapes(aggs, 0), 3, "every attempted shape")
}
