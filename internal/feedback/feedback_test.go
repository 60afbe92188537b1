package feedback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sketchcoach/internal/fusion"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

func scoreOf(acc float64) model.FusedScore {
	return model.FusedScore{Accuracy: acc, IsCorrect: acc >= model.CorrectThreshold}
}

func TestBandFor(t *testing.T) {
	cases := []struct {
		acc  float64
		want Band
	}{
		{1, BandExcellent},
		{0.9, BandExcellent},
		{0.89, BandGood},
		{0.7, BandGood},
		{0.69, BandNeedsImprovement},
		{0.4, BandNeedsImprovement},
		{0.39, BandKeepTrying},
		{0, BandKeepTrying},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, BandFor(c.acc), "accuracy %.2f", c.acc)
	}
}

func TestComposeCorrectStroke(t *testing.T) {
	ctx := Context{Shape: "circle", Level: model.LevelBeginner, Category: model.CategoryShapes}
	fb := Compose(scoreOf(0.95), fusion.Diagnostics{Classified: true, PredictedLabel: "circle", LabelMatched: true, SizeRatio: 1}, ctx)
	assert.False(t, fb.ShowVisualCorrection)
	assert.Equal(t, 0.95, fb.OverallScore)
	assert.Equal(t, encouragements[BandExcellent][model.LevelBeginner], fb.Encouragement)
	require.Len(t, fb.Suggestions, 1)
	assert.Contains(t, fb.Suggestions[0], "next shape")
}

func TestComposeIncorrectNamesGuideShape(t *testing.T) {
	ctx := Context{Shape: "circle", Level: model.LevelIntermediate, Category: model.CategoryShapes}
	diag := fusion.Diagnostics{
		Classified:     true,
		PredictedLabel: "line",
		ClosureGap:     0.8,
		SizeRatio:      0.4,
		Offset:         0.3,
		DurationRatio:  3,
	}
	fb := Compose(scoreOf(0.3), diag, ctx)
	assert.True(t, fb.ShowVisualCorrection)
	require.NotEmpty(t, fb.Suggestions)
	assert.LessOrEqual(t, len(fb.Suggestions), MaxSuggestions)
	assert.Contains(t, fb.Suggestions[0], "line")
	var namesShape bool
	for _, s := range fb.Suggestions {
		if strings.Contains(s, "circle") {
			namesShape = true
		}
	}
	assert.True(t, namesShape, "suggestions %v should reference the guide", fb.Suggestions)
}

func TestComposeKeepsTraceTipWhenListOverflows(t *testing.T) {
	ctx := Context{Shape: "square", Level: model.LevelAdvanced, Category: model.CategoryShapes}
	diag := fusion.Diagnostics{ClosureGap: 0.5, SizeRatio: 2, Offset: 0.5, DurationRatio: 0.2}
	fb := Compose(scoreOf(0.2), diag, ctx)
	require.Len(t, fb.Suggestions, MaxSuggestions)
	assert.Equal(t, "Trace closer to the square guide line.", fb.Suggestions[MaxSuggestions-1])
}

func TestComposeVocabularyDependsOnCategory(t *testing.T) {
	diag := fusion.Diagnostics{SizeRatio: 1}
	drill := Compose(scoreOf(0.5), diag, Context{Shape: "wave", Level: model.LevelBeginner, Category: model.CategoryCurves})
	mastery := Compose(scoreOf(0.5), diag, Context{Shape: "wave", Level: model.LevelBeginner, Category: model.CategoryMastery})
	assert.Equal(t, drill.OverallScore, mastery.OverallScore)
	assert.Equal(t, drill.ShowVisualCorrection, mastery.ShowVisualCorrection)
	assert.NotEqual(t, drill.Suggestions, mastery.Suggestions)
	assert.Contains(t, mastery.Suggestions[0], "contour")
}

func TestComposeIsPure(t *testing.T) {
	ctx := Context{Shape: "zig-zag", Level: "unknown", Category: model.CategoryLines}
	diag := fusion.Diagnostics{DurationRatio: 1, SizeRatio: 1}
	a := Compose(model.FusedScore{Accuracy: 0.75, IsCorrect: true, VelocityConsistency: 0.2}, diag, ctx)
	b := Compose(model.FusedScore{Accuracy: 0.75, IsCorrect: true, VelocityConsistency: 0.2}, diag, ctx)
	assert.Equal(t, a, b)
	assert.Equal(t, encouragements[BandGood][model.LevelBeginner], a.Encouragement)
	assert.Equal(t, []string{"Keep an even pace from start to finish."}, a.Suggestions)
	assert.Equal(t, "zig zag", ShapeName(ctx.Shape))
}
