package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sketchcoach/internal/classifier"
	"github.com/verte-zerg/sketchcoach/internal/feedback"
	"github.com/verte-zerg/sketchcoach/internal/fusion"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

var tracer = otel.Tracer("sketchcoach.engine")

// run executes preprocess, align and classify, fuse and compose.
func (s *Session) run(ctx context.Context, req Request, points []model.Point) (report *Report, err error) {
	ctx, span := tracer.Start(ctx, "engine.Analyze",
		trace.WithAttributes(
			attribute.String("session.id", s.id.String()),
			attribute.String("guide.shape", string(req.Guide.Shape)),
			attribute.Int("stroke.points", len(points)),
		),
	)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("%w: %v", ErrPipeline, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if s.metrics != nil {
			s.metrics.PipelineSeconds.Observe(time.Since(start).Seconds())
		}
		span.End()
	}()

	prepared := geometry.Preprocess(points)

	var (
		alignment model.AlignmentResult
		predicted *model.ClassifierResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverStage("align", &err)
		_, sp := tracer.Start(gctx, "engine.Align")
		defer sp.End()
		alignment = s.aligner.Align(prepared.Path, req.Guide)
		sp.SetAttributes(attribute.Float64("align.normalized_cost", alignment.NormalizedCost))
		return nil
	})
	if s.classifier != nil {
		g.Go(func() (err error) {
			defer recoverStage("classify", &err)
			cctx, sp := tracer.Start(gctx, "engine.Classify")
			defer sp.End()
			res, cerr := s.classifier.Classify(cctx, &prepared.Grid)
			if cerr != nil {
				if s.metrics != nil {
					s.metrics.ClassifierUnavailable.Inc()
				}
				sp.SetAttributes(attribute.Bool("classifier.available", false))
				if !errors.Is(cerr, classifier.ErrUnavailable) {
					cerr = fmt.Errorf("%w: %w", classifier.ErrUnavailable, cerr)
				}
				s.logger.Warn("classifier unavailable", "guide", req.Guide.Shape, "err", cerr)
				return nil
			}
			sp.SetAttributes(
				attribute.Bool("classifier.available", true),
				attribute.String("classifier.label", string(res.Label)),
			)
			predicted = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in := fusion.Input{
		Alignment:  alignment,
		Classifier: predicted,
		Guide:      req.Guide,
		Points:     points,
	}
	score := fusion.Fuse(in, s.cfg.Weights)
	diag := fusion.Diagnose(in)
	fb := feedback.Compose(score, diag, feedback.Context{
		Shape:    req.Guide.Shape,
		Level:    req.Level,
		Category: req.Guide.Category,
	})
	span.SetAttributes(
		attribute.Float64("score.accuracy", score.Accuracy),
		attribute.Bool("score.correct", score.IsCorrect),
	)
	s.logger.Debug("analysis complete", "guide", req.Guide.Shape, "accuracy", score.Accuracy, "correct", score.IsCorrect)

	return &Report{
		Feedback:    fb,
		Score:       score,
		Alignment:   alignment,
		Classifier:  predicted,
		Diagnostics: diag,
	}, nil
}

func recoverStage(stage string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s panicked: %v", ErrPipeline, stage, r)
	}
}
