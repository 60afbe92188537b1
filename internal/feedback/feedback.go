// Package feedback turns a fused score into suggestions and encouragement.
package feedback

import (
	"strings"

	"github.com/verte-zerg/sketchcoach/internal/fusion"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

// MaxSuggestions bounds the suggestion list.
const MaxSuggestions = 3

const (
	closureGapLimit    = 0.15
	offsetLimit        = 0.15
	minSizeRatio       = 0.75
	maxSizeRatio       = 1.33
	slowDurationRatio  = 1.5
	fastDurationRatio  = 0.5
	steadyVelocityGate = 0.6
)

// Band is an accuracy tier.
type Band int

// Accuracy bands, lowest first.
const (
	BandKeepTrying Band = iota
	BandNeedsImprovement
	BandGood
	BandExcellent
)

// BandFor classifies an accuracy.
func BandFor(accuracy float64) Band {
	switch {
	case accuracy >= 0.9:
		return BandExcellent
	case accuracy >= model.CorrectThreshold:
		return BandGood
	case accuracy >= 0.4:
		return BandNeedsImprovement
	default:
		return BandKeepTrying
	}
}

func (b Band) String() string {
	switch b {
	case BandExcellent:
		return "excellent"
	case BandGood:
		return "good"
	case BandNeedsImprovement:
		return "needs improvement"
	default:
		return "keep trying"
	}
}

// Context describes the lesson the stroke belongs to.
type Context struct {
	Shape    model.ShapeID
	Level    model.SkillLevel
	Category model.LessonCategory
}

// Compose builds feedback from the score and diagnostics. It is pure.
func Compose(score model.FusedScore, diag fusion.Diagnostics, ctx Context) model.Feedback {
	band := BandFor(score.Accuracy)
	return model.Feedback{
		OverallScore:         score.Accuracy,
		Suggestions:          suggestions(score, diag, ctx, band),
		Encouragement:        encouragement(band, ctx.Level),
		ShowVisualCorrection: !score.IsCorrect,
	}
}

func suggestions(score model.FusedScore, diag fusion.Diagnostics, ctx Context, band Band) []string {
	phrases := vocabularyFor(ctx.Category)
	shape := ShapeName(ctx.Shape)

	var kinds []tip
	if diag.Classified && !diag.LabelMatched && diag.PredictedLabel != "" {
		kinds = append(kinds, tipShape)
	}
	if diag.ClosureGap > closureGapLimit {
		kinds = append(kinds, tipClose)
	}
	switch {
	case diag.SizeRatio > 0 && diag.SizeRatio < minSizeRatio:
		kinds = append(kinds, tipLarger)
	case diag.SizeRatio > maxSizeRatio:
		kinds = append(kinds, tipSmaller)
	}
	if diag.Offset > offsetLimit {
		kinds = append(kinds, tipCenter)
	}
	if !score.IsCorrect {
		kinds = append(kinds, tipTrace)
	}
	switch {
	case diag.DurationRatio > slowDurationRatio:
		kinds = append(kinds, tipFaster)
	case diag.DurationRatio > 0 && diag.DurationRatio < fastDurationRatio:
		kinds = append(kinds, tipSlower)
	}
	if diag.DurationRatio > 0 && score.VelocityConsistency < steadyVelocityGate {
		kinds = append(kinds, tipSteady)
	}
	if len(kinds) == 0 {
		if band == BandExcellent {
			kinds = append(kinds, tipNext)
		} else {
			kinds = append(kinds, tipRefine)
		}
	}

	if len(kinds) > MaxSuggestions {
		if !score.IsCorrect && !containsTip(kinds[:MaxSuggestions], tipTrace) && !containsTip(kinds[:MaxSuggestions], tipShape) {
			kinds[MaxSuggestions-1] = tipTrace
		}
		kinds = kinds[:MaxSuggestions]
	}

	fill := strings.NewReplacer("{shape}", shape, "{label}", ShapeName(diag.PredictedLabel))
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, fill.Replace(phrases[k]))
	}
	return out
}

func containsTip(tips []tip, want tip) bool {
	for _, t := range tips {
		if t == want {
			return true
		}
	}
	return false
}

// ShapeName renders a shape id for sentences.
func ShapeName(shape model.ShapeID) string {
	return strings.ReplaceAll(string(shape), "-", " ")
}
