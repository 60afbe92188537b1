package classifier

import (
	"context"
	"fmt"
	"math"

	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

const (
	inkThreshold = 0.3
	// similarityFalloff is the mean chamfer distance, in grid cells, at which
	// similarity drops to 1/e.
	similarityFalloff = 2.0
)

type cell struct {
	x, y float64
}

type template struct {
	label model.ShapeID
	cells []cell
}

// TemplateClassifier labels a raster with the nearest rasterized guide.
// It stands in for a trained model and follows the same contract.
type TemplateClassifier struct {
	templates []template
}

// NewTemplateClassifier rasterizes every guide path once.
func NewTemplateClassifier(guides []model.GuideReference) *TemplateClassifier {
	c := &TemplateClassifier{}
	for _, g := range guides {
		grid := geometry.Rasterize(g.Path)
		cells := inkCells(&grid)
		if len(cells) == 0 {
			continue
		}
		c.templates = append(c.templates, template{label: g.Shape, cells: cells})
	}
	return c
}

// Labels returns the shapes the classifier can recognize.
func (c *TemplateClassifier) Labels() []model.ShapeID {
	labels := make([]model.ShapeID, 0, len(c.templates))
	for _, t := range c.templates {
		labels = append(labels, t.label)
	}
	return labels
}

// Classify implements Classifier.
func (c *TemplateClassifier) Classify(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ClassifierResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(c.templates) == 0 {
		return model.ClassifierResult{}, fmt.Errorf("%w: no templates", ErrUnavailable)
	}
	cells := inkCells(grid)
	if len(cells) == 0 {
		return model.ClassifierResult{}, fmt.Errorf("%w: empty raster", ErrUnavailable)
	}

	best := model.ClassifierResult{}
	bestDist := math.Inf(1)
	for _, t := range c.templates {
		if err := ctx.Err(); err != nil {
			return model.ClassifierResult{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		d := (meanNearest(cells, t.cells) + meanNearest(t.cells, cells)) / 2
		if d < bestDist {
			bestDist = d
			best.Label = t.label
		}
	}
	best.Confidence = math.Exp(-bestDist / similarityFalloff)
	return best, nil
}

func inkCells(grid *geometry.Grid) []cell {
	var cells []cell
	for y := range grid {
		for x := range grid[y] {
			if grid[y][x] > inkThreshold {
				cells = append(cells, cell{x: float64(x), y: float64(y)})
			}
		}
	}
	return cells
}

// meanNearest is the mean distance from each cell in a to its nearest cell in b.
func meanNearest(a, b []cell) float64 {
	var sum float64
	for _, p := range a {
		nearest := math.Inf(1)
		for _, q := range b {
			d := (p.x-q.x)*(p.x-q.x) + (p.y-q.y)*(p.y-q.y)
			if d < nearest {
				nearest = d
			}
		}
		sum += math.Sqrt(nearest)
	}
	return sum / float64(len(a))
}
