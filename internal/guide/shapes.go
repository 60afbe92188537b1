package guide

import (
	"math"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

func builtinDefinitions() []Definition {
	return []Definition{
		{Shape: "circle", Category: model.CategoryShapes, Closed: true, Pacing: pacing(1800), Points: ellipse(0.5, 0.5, 64)},
		{Shape: "ellipse", Category: model.CategoryShapes, Closed: true, Pacing: pacing(1800), Points: ellipse(0.5, 0.3, 64)},
		{Shape: "square", Category: model.CategoryShapes, Closed: true, Pacing: pacing(2200), Points: polyline(16,
			pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1), pt(0, 0))},
		{Shape: "triangle", Category: model.CategoryShapes, Closed: true, Pacing: pacing(1800), Points: polyline(16,
			pt(0.5, 0), pt(1, 1), pt(0, 1), pt(0.5, 0))},
		{Shape: "line", Category: model.CategoryLines, Pacing: pacing(700), Points: polyline(32, pt(0, 0.5), pt(1, 0.5))},
		{Shape: "zigzag", Category: model.CategoryLines, Pacing: pacing(1600), Points: polyline(8,
			pt(0, 0.8), pt(0.2, 0.2), pt(0.4, 0.8), pt(0.6, 0.2), pt(0.8, 0.8), pt(1, 0.2))},
		{Shape: "wave", Category: model.CategoryCurves, Pacing: pacing(1600), Points: wave(2, 0.3, 64)},
		{Shape: "spiral", Category: model.CategoryCurves, Pacing: pacing(2600), Points: spiral(3, 96)},
		{Shape: "star", Category: model.CategoryMastery, Closed: true, Pacing: pacing(2800), Points: star(5, 0.5, 0.2)},
		{Shape: "heart", Category: model.CategoryMastery, Closed: true, Pacing: pacing(2400), Points: heart(64)},
	}
}

func pacing(ms float64) *model.Pacing {
	return &model.Pacing{ExpectedDurationMs: ms}
}

func pt(x, y float64) model.Point {
	return model.Point{X: x, Y: y}
}

// polyline joins vertices with perSegment evenly spaced points per edge.
func polyline(perSegment int, vertices ...model.Point) []model.Point {
	points := []model.Point{vertices[0]}
	for i := 1; i < len(vertices); i++ {
		a, b := vertices[i-1], vertices[i]
		for s := 1; s <= perSegment; s++ {
			t := float64(s) / float64(perSegment)
			points = append(points, pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t))
		}
	}
	return points
}

func ellipse(rx, ry float64, segments int) []model.Point {
	points := make([]model.Point, segments+1)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		points[i] = pt(0.5+rx*math.Cos(theta), 0.5+ry*math.Sin(theta))
	}
	return points
}

func wave(periods, amplitude float64, n int) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		x := float64(i) / float64(n-1)
		points[i] = pt(x, 0.5-amplitude*math.Sin(2*math.Pi*periods*x))
	}
	return points
}

func spiral(turns float64, n int) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		t := float64(i) / float64(n-1)
		theta := 2 * math.Pi * turns * t
		points[i] = pt(0.5+0.5*t*math.Cos(theta), 0.5+0.5*t*math.Sin(theta))
	}
	return points
}

func star(tips int, outer, inner float64) []model.Point {
	vertices := make([]model.Point, 0, 2*tips+1)
	for i := 0; i < 2*tips; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		theta := -math.Pi/2 + math.Pi*float64(i)/float64(tips)
		vertices = append(vertices, pt(0.5+r*math.Cos(theta), 0.5+r*math.Sin(theta)))
	}
	vertices = append(vertices, vertices[0])
	return polyline(6, vertices...)
}

func heart(segments int) []model.Point {
	points := make([]model.Point, segments+1)
	for i := range points {
		t := 2 * math.Pi * float64(i) / float64(segments)
		x := 16 * math.Pow(math.Sin(t), 3)
		y := 13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)
		points[i] = pt(x, -y)
	}
	return points
}
