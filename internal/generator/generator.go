// Package generator picks the next guide shapes to practice.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

// Generator produces randomized shape sequences.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects shapes uniformly, avoiding immediate repeats when possible.
func (g *Generator) Generate(shapes []model.ShapeID, count int) []model.ShapeID {
	weights := make([]float64, len(shapes))
	for i := range weights {
		weights[i] = 1
	}
	return g.pick(shapes, weights, count)
}

// GenerateWeighted selects shapes with a bias toward weak shapes.
func (g *Generator) GenerateWeighted(shapes []model.ShapeID, count int, weakSet map[model.ShapeID]struct{}, factor float64) []model.ShapeID {
	weights := make([]float64, len(shapes))
	for i, shape := range shapes {
		w := 1.0
		if _, ok := weakSet[shape]; ok {
			w += factor
		}
		weights[i] = w
	}
	return g.pick(shapes, weights, count)
}

func (g *Generator) pick(shapes []model.ShapeID, weights []float64, count int) []model.ShapeID {
	if len(shapes) == 0 || count <= 0 {
		return nil
	}
	result := make([]model.ShapeID, 0, count)
	last := -1
	for i := 0; i < count; i++ {
		idx := g.choose(weights, last)
		result = append(result, shapes[idx])
		last = idx
	}
	return result
}

// choose draws an index proportional to weights, skipping exclude unless it is the only choice.
func (g *Generator) choose(weights []float64, exclude int) int {
	total := 0.0
	for i, w := range weights {
		if i != exclude {
			total += w
		}
	}
	if total <= 0 {
		return max(exclude, 0)
	}
	r := g.rnd.Float64() * total
	acc := 0.0
	idx := -1
	for j, w := range weights {
		if j == exclude {
			continue
		}
		acc += w
		idx = j
		if r <= acc {
			break
		}
	}
	return idx
}
