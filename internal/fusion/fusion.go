// Package fusion combines alignment, classifier and timing signals into one score.
package fusion

import (
	"math"

	"github.com/verte-zerg/sketchcoach/internal/align"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

// Weights tunes how advisory signals move the alignment-based accuracy.
type Weights struct {
	// MatchBonus is added per unit of classifier confidence when labels agree.
	MatchBonus float64 `validate:"gte=0,lte=1"`
	// MismatchPenalty is subtracted per unit of confidence when labels differ.
	MismatchPenalty float64 `validate:"gte=0,lte=0.5"`
	// TimingWeight is the share of the final score taken by pacing signals.
	TimingWeight float64 `validate:"gte=0,lte=1"`
}

// DefaultWeights returns the tuned default weights.
func DefaultWeights() Weights {
	return Weights{
		MatchBonus:      0.10,
		MismatchPenalty: 0.15,
		TimingWeight:    0.15,
	}
}

// Input carries every signal available for one analysis.
type Input struct {
	Alignment model.AlignmentResult
	// Classifier is nil when the classifier was unavailable.
	Classifier *model.ClassifierResult
	Guide      *model.GuideReference
	// Points is the raw stroke; timestamps drive the pacing signals.
	Points []model.Point
}

// Fuse always returns a score; missing signals are skipped.
func Fuse(in Input, w Weights) model.FusedScore {
	var score model.FusedScore
	acc := align.Accuracy(in.Alignment)

	if c := in.Classifier; c != nil {
		conf := clamp01(c.Confidence)
		score.ConfidenceScore = conf
		if in.Guide != nil && c.Label == in.Guide.Shape {
			acc += w.MatchBonus * conf
		} else {
			acc -= w.MismatchPenalty * conf
		}
		acc = clamp01(acc)
	}

	if pacing := guidePacing(in.Guide); pacing != nil && strokeDuration(in.Points) > 0 {
		score.TemporalAccuracy = TemporalAccuracy(in.Points, *pacing)
		score.VelocityConsistency = VelocityConsistency(in.Points)
		timing := (score.TemporalAccuracy + score.VelocityConsistency) / 2
		acc = (1-w.TimingWeight)*acc + w.TimingWeight*timing
	}

	score.Accuracy = clamp01(acc)
	score.IsCorrect = score.Accuracy >= model.CorrectThreshold
	return score
}

// TemporalAccuracy compares the stroke duration with the expected one.
func TemporalAccuracy(points []model.Point, pacing model.Pacing) float64 {
	expected := pacing.ExpectedDurationMs
	if expected <= 0 {
		return 0
	}
	return clamp01(1 - math.Abs(strokeDuration(points)-expected)/expected)
}

// VelocityConsistency is one minus the coefficient of variation of segment speeds.
func VelocityConsistency(points []model.Point) float64 {
	speeds := segmentSpeeds(points)
	if len(speeds) == 0 {
		return 0
	}
	var mean float64
	for _, v := range speeds {
		mean += v
	}
	mean /= float64(len(speeds))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range speeds {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(speeds))
	return clamp01(1 - math.Sqrt(variance)/mean)
}

func segmentSpeeds(points []model.Point) []float64 {
	speeds := make([]float64, 0, len(points))
	for i := 1; i < len(points); i++ {
		dt := points[i].Timestamp - points[i-1].Timestamp
		if dt <= 0 {
			continue
		}
		speeds = append(speeds, geometry.Distance(points[i-1], points[i])/dt)
	}
	return speeds
}

func strokeDuration(points []model.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	return points[len(points)-1].Timestamp - points[0].Timestamp
}

func guidePacing(g *model.GuideReference) *model.Pacing {
	if g == nil || g.Pacing == nil || g.Pacing.ExpectedDurationMs <= 0 {
		return nil
	}
	return g.Pacing
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
