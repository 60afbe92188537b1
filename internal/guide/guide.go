// Package guide holds the guide shapes a user can trace.
package guide

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

var (
	// ErrUnknownShape is returned for shapes the catalog does not define.
	ErrUnknownShape = errors.New("unknown shape")
	// ErrInvalidDefinition is returned for malformed guide definitions.
	ErrInvalidDefinition = errors.New("invalid guide definition")
)

// Definition is a guide in unit-square coordinates, y pointing down.
type Definition struct {
	Shape    model.ShapeID
	Category model.LessonCategory
	Closed   bool
	Pacing   *model.Pacing
	Points   []model.Point
}

// Catalog is an ordered set of guide definitions keyed by shape.
type Catalog struct {
	defs  map[model.ShapeID]Definition
	order []model.ShapeID
}

// NewCatalog validates and normalizes defs. Later definitions replace
// earlier ones with the same shape.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[model.ShapeID]Definition, len(defs))}
	for _, def := range defs {
		if err := c.add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Builtin returns the catalog of built-in guides.
func Builtin() *Catalog {
	c, err := NewCatalog(builtinDefinitions()...)
	if err != nil {
		panic(fmt.Sprintf("builtin guides: %v", err))
	}
	return c
}

// Merge returns a catalog with defs layered over c.
func (c *Catalog) Merge(defs ...Definition) (*Catalog, error) {
	merged := &Catalog{
		defs:  make(map[model.ShapeID]Definition, len(c.defs)+len(defs)),
		order: append([]model.ShapeID(nil), c.order...),
	}
	for shape, def := range c.defs {
		merged.defs[shape] = def
	}
	for _, def := range defs {
		if err := merged.add(def); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func (c *Catalog) add(def Definition) error {
	if err := validateDefinition(def); err != nil {
		return err
	}
	def.Points = normalize(def.Points)
	if def.Pacing != nil {
		p := *def.Pacing
		def.Pacing = &p
	}
	if _, ok := c.defs[def.Shape]; !ok {
		c.order = append(c.order, def.Shape)
	}
	c.defs[def.Shape] = def
	return nil
}

// Shapes lists shapes in insertion order.
func (c *Catalog) Shapes() []model.ShapeID {
	return append([]model.ShapeID(nil), c.order...)
}

// Filter lists shapes accepted by keep, in catalog order.
func (c *Catalog) Filter(keep FilterFunc) []model.ShapeID {
	var shapes []model.ShapeID
	for _, shape := range c.order {
		if keep(c.defs[shape]) {
			shapes = append(shapes, shape)
		}
	}
	return shapes
}

// Definition returns the definition for shape.
func (c *Catalog) Definition(shape model.ShapeID) (Definition, bool) {
	def, ok := c.defs[shape]
	return def, ok
}

// Categories returns the categories present in the catalog, sorted.
func (c *Catalog) Categories() []model.LessonCategory {
	seen := make(map[model.LessonCategory]struct{})
	for _, def := range c.defs {
		seen[def.Category] = struct{}{}
	}
	out := make([]model.LessonCategory, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reference scales the unit guide for shape into bounds, keeping its aspect
// ratio and centering it. The returned reference shares nothing with the catalog.
func (c *Catalog) Reference(shape model.ShapeID, bounds geometry.Rect) (*model.GuideReference, error) {
	def, ok := c.defs[shape]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShape, shape)
	}
	if bounds.Width() <= 0 || bounds.Height() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds for %s", ErrInvalidDefinition, shape)
	}

	side := math.Min(bounds.Width(), bounds.Height())
	cx, cy := bounds.Center()
	path := make([]model.Point, len(def.Points))
	for i, p := range def.Points {
		path[i] = model.Point{
			X: cx + (p.X-0.5)*side,
			Y: cy + (p.Y-0.5)*side,
		}
	}
	ref := &model.GuideReference{
		Shape:    def.Shape,
		Path:     path,
		Category: def.Category,
		Closed:   def.Closed,
	}
	if def.Pacing != nil {
		p := *def.Pacing
		ref.Pacing = &p
	}
	return ref, nil
}

// References scales every guide into bounds.
func (c *Catalog) References(bounds geometry.Rect) ([]model.GuideReference, error) {
	refs := make([]model.GuideReference, 0, len(c.order))
	for _, shape := range c.order {
		ref, err := c.Reference(shape, bounds)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, nil
}

func validateDefinition(def Definition) error {
	if def.Shape == "" {
		return fmt.Errorf("%w: missing shape", ErrInvalidDefinition)
	}
	if !def.Category.Valid() {
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidDefinition, def.Shape, def.Category)
	}
	if len(def.Points) < 2 {
		return fmt.Errorf("%w: %s needs at least 2 points", ErrInvalidDefinition, def.Shape)
	}
	for i, p := range def.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: %s point %d is not finite", ErrInvalidDefinition, def.Shape, i)
		}
	}
	if geometry.Bounds(def.Points).Degenerate() {
		return fmt.Errorf("%w: %s has no extent", ErrInvalidDefinition, def.Shape)
	}
	if def.Pacing != nil && !(def.Pacing.ExpectedDurationMs > 0) {
		return fmt.Errorf("%w: %s pacing must be positive", ErrInvalidDefinition, def.Shape)
	}
	return nil
}

// normalize fits points into the unit square, centered, keeping the aspect ratio.
func normalize(points []model.Point) []model.Point {
	b := geometry.Bounds(points)
	side := math.Max(b.Width(), b.Height())
	cx, cy := b.Center()
	out := make([]model.Point, len(points))
	for i, p := range points {
		out[i] = model.Point{
			X: 0.5 + (p.X-cx)/side,
			Y: 0.5 + (p.Y-cy)/side,
		}
	}
	return out
}
