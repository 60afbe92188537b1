package fusion

import (
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

// Diagnostics are the raw observations suggestions are chosen from.
type Diagnostics struct {
	Classified     bool
	PredictedLabel model.ShapeID
	LabelMatched   bool
	// ClosureGap is the endpoint gap over the guide diagonal; 0 for open guides.
	ClosureGap float64
	// SizeRatio is the stroke diagonal over the guide diagonal.
	SizeRatio float64
	// Offset is the distance between box centers over the guide diagonal.
	Offset float64
	// DurationRatio is actual over expected duration; 0 without pacing.
	DurationRatio float64
}

// Diagnose derives diagnostics from the same input Fuse consumes.
func Diagnose(in Input) Diagnostics {
	var d Diagnostics
	if c := in.Classifier; c != nil {
		d.Classified = true
		d.PredictedLabel = c.Label
		d.LabelMatched = in.Guide != nil && c.Label == in.Guide.Shape
	}
	if in.Guide == nil || len(in.Points) == 0 {
		return d
	}

	guideBox := geometry.Bounds(in.Guide.Path)
	diag := guideBox.Diagonal()
	if diag == 0 {
		return d
	}
	strokeBox := geometry.Bounds(in.Points)
	d.SizeRatio = strokeBox.Diagonal() / diag

	gx, gy := guideBox.Center()
	sx, sy := strokeBox.Center()
	d.Offset = geometry.Distance(model.Point{X: gx, Y: gy}, model.Point{X: sx, Y: sy}) / diag

	if in.Guide.Closed {
		d.ClosureGap = geometry.Distance(in.Points[0], in.Points[len(in.Points)-1]) / diag
	}
	if pacing := guidePacing(in.Guide); pacing != nil {
		d.DurationRatio = strokeDuration(in.Points) / pacing.ExpectedDurationMs
	}
	return d
}
