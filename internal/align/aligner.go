package align

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"

	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

// DefaultScaleFactor converts the guide diagonal into the cost at which accuracy reaches zero.
const DefaultScaleFactor = 0.25

// closeEpsilon is the gap under which a path's endpoints count as joined.
const closeEpsilon = 1e-6

type reference struct {
	path  []model.Point
	ring  []model.Point
	scale float64
}

// Aligner aligns strokes against guides. Prepared reference paths are cached
// because guides stay immutable for a lesson.
type Aligner struct {
	scaleFactor float64
	refs        *cache.Cache
}

// New returns an Aligner. A non-positive factor selects DefaultScaleFactor.
func New(scaleFactor float64) *Aligner {
	if scaleFactor <= 0 {
		scaleFactor = DefaultScaleFactor
	}
	return &Aligner{
		scaleFactor: scaleFactor,
		refs:        cache.New(cache.NoExpiration, 0),
	}
}

// Align aligns an already resampled user path against the guide.
func (a *Aligner) Align(userPath []model.Point, guide *model.GuideReference) model.AlignmentResult {
	ref := a.reference(guide)
	var result model.AlignmentResult
	if guide.Closed && len(ref.ring) > 2 && len(userPath) > 0 {
		result = a.alignClosed(userPath, ref.ring)
	} else {
		result = DTW(userPath, ref.path)
	}
	result.NormalizedCost = clamp01(result.Cost / ref.scale)
	return result
}

// alignClosed rotates the ring to start next to the stroke's first point and
// tries both directions. The ring holds fewer than MaxPathPoints points, so the
// rotated loop including its closing point stays within the cap.
func (a *Aligner) alignClosed(userPath, ring []model.Point) model.AlignmentResult {
	start := nearestIndex(ring, userPath[0])
	forward := make([]model.Point, 0, len(ring)+1)
	forward = append(forward, ring[start:]...)
	forward = append(forward, ring[:start]...)
	forward = append(forward, ring[start])

	backward := make([]model.Point, len(forward))
	for i, p := range forward {
		backward[len(forward)-1-i] = p
	}

	best := DTW(userPath, forward)
	if alt := DTW(userPath, backward); alt.Cost < best.Cost {
		best = alt
	}
	return best
}

// ReferenceScale returns the cost that maps to zero accuracy for the guide.
func (a *Aligner) ReferenceScale(guide *model.GuideReference) float64 {
	return a.reference(guide).scale
}

func (a *Aligner) reference(guide *model.GuideReference) reference {
	key := referenceKey(guide)
	if v, ok := a.refs.Get(key); ok {
		return v.(reference)
	}

	ref := reference{
		path:  geometry.Resample(guide.Path, geometry.ResampleCount(len(guide.Path))),
		scale: a.scaleFactor * geometry.Bounds(guide.Path).Diagonal(),
	}
	if ref.scale <= 0 {
		ref.scale = 1
	}
	if guide.Closed && len(ref.path) > 2 {
		ref.ring = closedRing(guide.Path)
	}
	a.refs.Set(key, ref, cache.NoExpiration)
	return ref
}

// referenceKey identifies a guide by every point of its path, so two guides
// sharing a name and bounding box never share a prepared reference.
func referenceKey(guide *model.GuideReference) string {
	h := xxhash.New()
	var buf [16]byte
	for _, p := range guide.Path {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Y))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%t/%d/%016x", guide.Closed, len(guide.Path), h.Sum64())
}

// closedRing resamples the guide as a loop and drops the repeated end point.
func closedRing(path []model.Point) []model.Point {
	loop := path
	if geometry.Distance(path[0], path[len(path)-1]) >= closeEpsilon {
		loop = append(slices.Clone(path), path[0])
	}
	ring := geometry.Resample(loop, geometry.ResampleCount(len(loop)))
	if len(ring) < 2 {
		return nil
	}
	return ring[:len(ring)-1]
}

// Accuracy maps an alignment to a geometric accuracy in [0,1].
func Accuracy(r model.AlignmentResult) float64 {
	return clamp01(1 - r.NormalizedCost)
}

func nearestIndex(points []model.Point, target model.Point) int {
	best := 0
	bestDist := geometry.Distance(points[0], target)
	for i := 1; i < len(points); i++ {
		if d := geometry.Distance(points[i], target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
