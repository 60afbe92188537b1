// Package geometry normalizes raw strokes for alignment and classification.
package geometry

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

const (
	// GridSize is the side of the square raster grid fed to the classifier.
	GridSize = 28
	// MaxPathPoints caps resampled paths so alignment cost stays bounded.
	MaxPathPoints = 100

	gridPadding  = 2
	inkHalfWidth = 0.75
)

// Grid is a GridSize x GridSize coverage raster indexed as Grid[y][x], values in [0,1].
type Grid [GridSize][GridSize]float64

// Ink returns the number of cells with coverage above the threshold.
func (g *Grid) Ink(threshold float64) int {
	n := 0
	for y := range g {
		for x := range g[y] {
			if g[y][x] > threshold {
				n++
			}
		}
	}
	return n
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Diagonal returns the length of the box diagonal.
func (r Rect) Diagonal() float64 { return math.Hypot(r.Width(), r.Height()) }

// Center returns the midpoint of the box.
func (r Rect) Center() (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// Degenerate reports whether the box collapses to a single point.
func (r Rect) Degenerate() bool {
	return r.Width() == 0 && r.Height() == 0
}

// Prepared is the preprocessed form of a stroke.
type Prepared struct {
	Bounds Rect
	Grid   Grid
	Path   []model.Point
}

// Preprocess extracts bounds, rasterizes and resamples the points.
func Preprocess(points []model.Point) Prepared {
	prep := Prepared{Bounds: Bounds(points)}
	if len(points) == 0 {
		return prep
	}
	if prep.Bounds.Degenerate() {
		prep.Path = []model.Point{points[0]}
		return prep
	}
	prep.Grid = Rasterize(points)
	prep.Path = Resample(points, ResampleCount(len(points)))
	return prep
}

// ResampleCount returns how many points a path of n raw points is resampled to.
func ResampleCount(n int) int {
	if n > MaxPathPoints {
		return MaxPathPoints
	}
	return n
}

// Bounds returns the bounding box of the points.
func Bounds(points []model.Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PathLength returns the total polyline length.
func PathLength(points []model.Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Resample returns n points spaced uniformly along the polyline. The first
// and last points are preserved; timestamps are interpolated.
func Resample(points []model.Point, n int) []model.Point {
	if len(points) == 0 || n <= 0 {
		return nil
	}
	total := PathLength(points)
	if total == 0 || n == 1 {
		return []model.Point{points[0]}
	}
	step := total / float64(n-1)
	out := make([]model.Point, 0, n)
	out = append(out, points[0])
	target := step
	var walked float64
	for i := 1; i < len(points) && len(out) < n-1; i++ {
		prev, cur := points[i-1], points[i]
		seg := Distance(prev, cur)
		for seg > 0 && walked+seg >= target && len(out) < n-1 {
			out = append(out, lerp(prev, cur, (target-walked)/seg))
			target += step
		}
		walked += seg
	}
	last := points[len(points)-1]
	for len(out) < n-1 {
		out = append(out, last)
	}
	return append(out, last)
}

func lerp(a, b model.Point, t float64) model.Point {
	return model.Point{
		X:         a.X + (b.X-a.X)*t,
		Y:         a.Y + (b.Y-a.Y)*t,
		Timestamp: a.Timestamp + (b.Timestamp-a.Timestamp)*t,
	}
}

// Rasterize draws the polyline into a grid. The bounding box is centered and
// scaled by its larger side so the aspect ratio is kept.
func Rasterize(points []model.Point) Grid {
	var grid Grid
	b := Bounds(points)
	if len(points) == 0 || b.Degenerate() {
		return grid
	}
	scale := float64(GridSize-2*gridPadding) / math.Max(b.Width(), b.Height())
	cx, cy := b.Center()
	half := float64(GridSize) / 2
	project := func(p model.Point) (float32, float32) {
		return float32(half + (p.X-cx)*scale), float32(half + (p.Y-cy)*scale)
	}

	r := vector.NewRasterizer(GridSize, GridSize)
	for i, p := range points {
		x, y := project(p)
		addDot(r, x, y)
		if i == 0 {
			continue
		}
		px, py := project(points[i-1])
		addSegment(r, px, py, x, y)
	}
	dst := image.NewAlpha(image.Rect(0, 0, GridSize, GridSize))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			grid[y][x] = float64(dst.AlphaAt(x, y).A) / 255
		}
	}
	return grid
}

// addSegment adds a thin quad around a->b. Quads and dots share one winding
// direction so overlaps saturate instead of cancelling.
func addSegment(r *vector.Rasterizer, ax, ay, bx, by float32) {
	dx, dy := bx-ax, by-ay
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*inkHalfWidth, dx/length*inkHalfWidth
	r.MoveTo(ax+nx, ay+ny)
	r.LineTo(bx+nx, by+ny)
	r.LineTo(bx-nx, by-ny)
	r.LineTo(ax-nx, ay-ny)
	r.ClosePath()
}

func addDot(r *vector.Rasterizer, x, y float32) {
	const h = inkHalfWidth
	r.MoveTo(x-h, y-h)
	r.LineTo(x-h, y+h)
	r.LineTo(x+h, y+h)
	r.LineTo(x+h, y-h)
	r.ClosePath()
}
