package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sketchcoach/internal/classifier"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingClassifier struct {
	calls  atomic.Int32
	result model.ClassifierResult
}

func (c *countingClassifier) Classify(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error) {
	c.calls.Add(1)
	return c.result, nil
}

func circlePath(cx, cy, r float64, n int, wobble float64) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n-1)
		radius := r + wobble*math.Sin(5*theta)
		points[i] = model.Point{
			X:         cx + radius*math.Cos(theta),
			Y:         cy + radius*math.Sin(theta),
			Timestamp: float64(i) * 15,
		}
	}
	return points
}

func circleGuide() *model.GuideReference {
	return &model.GuideReference{
		Shape:    "circle",
		Category: model.CategoryShapes,
		Closed:   true,
		Path:     circlePath(150, 150, 80, 65, 0),
	}
}

func linePoints(n int) []model.Point {
	points := make([]model.Point, n)
	for i := range points {
		t := float64(i) / float64(n-1)
		points[i] = model.Point{X: 70 + 160*t, Y: 150, Timestamp: float64(i) * 10}
	}
	return points
}

func newTestSession(t *testing.T, cfg Config, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(cfg, opts...)
	require.NoError(t, err)
	return s
}

func TestAnalyzeInsufficientDataSkipsPipeline(t *testing.T) {
	cls := &countingClassifier{result: model.ClassifierResult{Label: "circle", Confidence: 0.9}}
	s := newTestSession(t, DefaultConfig(), WithClassifier(cls))

	for _, points := range [][]model.Point{nil, {{X: 1, Y: 1}}, {{X: 1, Y: 1}, {X: math.NaN(), Y: 2}}} {
		out, err := s.Analyze(context.Background(), Request{Stroke: model.Stroke{Points: points}, Guide: circleGuide()})
		require.ErrorIs(t, err, ErrInsufficientData)
		assert.Nil(t, out.Report)
	}
	assert.Zero(t, cls.calls.Load())
	assert.True(t, s.State().LastAnalysis.IsZero())
	assert.Equal(t, PhaseIdle, s.State().Phase)
}

func TestAnalyzeInvalidGuide(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	stroke := model.Stroke{Points: linePoints(5)}

	short := circleGuide()
	short.Path = short.Path[:1]
	nan := circleGuide()
	nan.Path[3].X = math.Inf(1)
	pacing := circleGuide()
	pacing.Pacing = &model.Pacing{}

	for name, guide := range map[string]*model.GuideReference{
		"nil":     nil,
		"unnamed": {Path: linePoints(3)},
		"short":   short,
		"nan":     nan,
		"pacing":  pacing,
	} {
		_, err := s.Analyze(context.Background(), Request{Stroke: stroke, Guide: guide})
		assert.ErrorIs(t, err, ErrInvalidGuide, name)
	}

	_, err := s.Analyze(context.Background(), Request{
		Stroke: model.Stroke{Points: linePoints(5), GuideID: "square"},
		Guide:  circleGuide(),
	})
	assert.ErrorIs(t, err, ErrInvalidGuide)

	out, err := s.Analyze(context.Background(), Request{Stroke: stroke, Guide: circleGuide()})
	require.NoError(t, err, "an invalid guide must not end the session")
	assert.Equal(t, Analyzed, out.Kind)
}

func TestSchedulerThrottlesWithinMinInterval(t *testing.T) {
	clock := newFakeClock()
	cls := &countingClassifier{result: model.ClassifierResult{Label: "circle", Confidence: 0.9}}
	cfg := DefaultConfig()
	cfg.MinInterval = 200 * time.Millisecond
	s := newTestSession(t, cfg, WithClassifier(cls), WithClock(clock.Now))
	req := Request{Stroke: model.Stroke{Points: circlePath(150, 150, 80, 40, 0)}, Guide: circleGuide()}

	first, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	clock.Advance(100 * time.Millisecond)
	second, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, Analyzed, first.Kind)
	require.NotNil(t, first.Report)
	assert.Equal(t, Throttled, second.Kind)
	assert.Nil(t, second.Report)
	assert.Equal(t, int32(1), cls.calls.Load())
	assert.Equal(t, PhaseThrottled, s.State().Phase)
}

func TestSchedulerRunsBothCallsAfterMinInterval(t *testing.T) {
	clock := newFakeClock()
	cls := &countingClassifier{result: model.ClassifierResult{Label: "circle", Confidence: 0.9}}
	cfg := DefaultConfig()
	cfg.MinInterval = 200 * time.Millisecond
	s := newTestSession(t, cfg, WithClassifier(cls), WithClock(clock.Now))
	req := Request{Stroke: model.Stroke{Points: circlePath(150, 150, 80, 40, 0)}, Guide: circleGuide()}

	first, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	clock.Advance(250 * time.Millisecond)
	second, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, Analyzed, first.Kind)
	assert.Equal(t, Analyzed, second.Kind)
	assert.Equal(t, int32(2), cls.calls.Load())
	state := s.State()
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Equal(t, clock.Now(), state.LastAnalysis)
	assert.Equal(t, 200*time.Millisecond, state.MinInterval)
}

func TestSchedulerSuspendsUnderCriticalPressure(t *testing.T) {
	clock := newFakeClock()
	cls := &countingClassifier{result: model.ClassifierResult{Label: "circle", Confidence: 0.9}}
	s := newTestSession(t, DefaultConfig(), WithClassifier(cls), WithClock(clock.Now))
	req := Request{Stroke: model.Stroke{Points: circlePath(150, 150, 80, 40, 0)}, Guide: circleGuide()}

	for _, pressure := range []int{2, 3, 2} {
		req.MemoryPressure = pressure
		out, err := s.Analyze(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, Suspended, out.Kind)
		assert.Equal(t, pressure, out.Pressure)
		assert.Nil(t, out.Report)
		assert.Equal(t, PhaseSuspended, s.State().Phase)
		clock.Advance(time.Hour)
	}
	assert.Zero(t, cls.calls.Load())

	req.MemoryPressure = 1
	out, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Analyzed, out.Kind)
	assert.Equal(t, 1, s.State().MemoryPressure)
}

type blockingClassifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingClassifier) Classify(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error) {
	close(b.entered)
	<-b.release
	return model.ClassifierResult{Label: "circle", Confidence: 0.8}, nil
}

func TestSchedulerThrottlesWhileAnalyzing(t *testing.T) {
	clock := newFakeClock()
	cls := &blockingClassifier{entered: make(chan struct{}), release: make(chan struct{})}
	cfg := DefaultConfig()
	cfg.ClassifierTimeout = 5 * time.Second
	s := newTestSession(t, cfg, WithClassifier(cls), WithClock(clock.Now))
	req := Request{Stroke: model.Stroke{Points: circlePath(150, 150, 80, 40, 0)}, Guide: circleGuide()}

	done := make(chan Outcome, 1)
	go func() {
		out, err := s.Analyze(context.Background(), req)
		assert.NoError(t, err)
		done <- out
	}()

	<-cls.entered
	assert.Equal(t, PhaseAnalyzing, s.State().Phase)
	clock.Advance(time.Second)
	out, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, Throttled, out.Kind)

	close(cls.release)
	first := <-done
	assert.Equal(t, Analyzed, first.Kind)
	require.NotNil(t, first.Report.Classifier)
	assert.Equal(t, PhaseIdle, s.State().Phase)
}

func TestClassifierDeadlineFallsBackToAlignment(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	slow := classifier.Func(func(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error) {
		select {
		case <-ctx.Done():
			return model.ClassifierResult{}, ctx.Err()
		case <-time.After(time.Second):
			return model.ClassifierResult{Label: "circle", Confidence: 1}, nil
		}
	})
	cfg := DefaultConfig()
	cfg.ClassifierTimeout = 20 * time.Millisecond
	s := newTestSession(t, cfg, WithClassifier(slow), WithMetrics(metrics))

	start := time.Now()
	out, err := s.Analyze(context.Background(), Request{
		Stroke: model.Stroke{Points: circlePath(150, 150, 80, 67, 0.5)},
		Guide:  circleGuide(),
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Equal(t, Analyzed, out.Kind)
	assert.Nil(t, out.Report.Classifier)
	assert.Zero(t, out.Report.Score.ConfidenceScore)
	assert.Equal(t, out.Report.Score.Accuracy >= model.CorrectThreshold, out.Report.Score.IsCorrect)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ClassifierUnavailable))
}

func TestAnalyzeNearPerfectCircle(t *testing.T) {
	cls := &countingClassifier{result: model.ClassifierResult{Label: "circle", Confidence: 0.94}}
	s := newTestSession(t, DefaultConfig(), WithClassifier(cls))

	out, err := s.Analyze(context.Background(), Request{
		Stroke: model.Stroke{Points: circlePath(150, 150, 80, 67, 0.5), GuideID: "circle"},
		Guide:  circleGuide(),
		Level:  model.LevelBeginner,
	})
	require.NoError(t, err)
	require.Equal(t, Analyzed, out.Kind)
	report := out.Report
	assert.Len(t, geometry.Preprocess(circlePath(150, 150, 80, 67, 0.5)).Path, 67)
	assert.GreaterOrEqual(t, report.Score.Accuracy, 0.9)
	assert.True(t, report.Score.IsCorrect)
	assert.False(t, report.Feedback.ShowVisualCorrection)
	assert.Equal(t, 0.94, report.Score.ConfidenceScore)
	assert.NotEmpty(t, report.Feedback.Encouragement)
	assert.NotEmpty(t, report.Feedback.Suggestions)
}

func TestAnalyzeLineAgainstCircle(t *testing.T) {
	cls := &countingClassifier{result: model.ClassifierResult{Label: "line", Confidence: 0.3}}
	s := newTestSession(t, DefaultConfig(), WithClassifier(cls))

	out, err := s.Analyze(context.Background(), Request{
		Stroke: model.Stroke{Points: linePoints(67)},
		Guide:  circleGuide(),
		Level:  model.LevelIntermediate,
	})
	require.NoError(t, err)
	require.Equal(t, Analyzed, out.Kind)
	report := out.Report
	assert.Less(t, report.Score.Accuracy, 0.7)
	assert.False(t, report.Score.IsCorrect)
	assert.True(t, report.Feedback.ShowVisualCorrection)
	require.NotEmpty(t, report.Feedback.Suggestions)
	assert.LessOrEqual(t, len(report.Feedback.Suggestions), 3)

	var mentionsGuide bool
	for _, suggestion := range report.Feedback.Suggestions {
		if strings.Contains(suggestion, "circle") {
			mentionsGuide = true
		}
	}
	assert.True(t, mentionsGuide, "suggestions: %v", report.Feedback.Suggestions)
}

func TestEndedSessionRejectsAnalysis(t *testing.T) {
	s := newTestSession(t, DefaultConfig())
	s.End()
	_, err := s.Analyze(context.Background(), Request{Stroke: model.Stroke{Points: linePoints(4)}, Guide: circleGuide()})
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestOutcomeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	again, err := NewMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, metrics.Outcomes, again.Outcomes)

	clock := newFakeClock()
	s := newTestSession(t, DefaultConfig(), WithMetrics(metrics), WithClock(clock.Now))
	req := Request{Stroke: model.Stroke{Points: linePoints(10)}, Guide: circleGuide()}

	_, err = s.Analyze(context.Background(), req)
	require.NoError(t, err)
	_, err = s.Analyze(context.Background(), req)
	require.NoError(t, err)
	req.MemoryPressure = 5
	_, err = s.Analyze(context.Background(), req)
	require.NoError(t, err)
	_, err = s.Analyze(context.Background(), Request{Guide: circleGuide()})
	require.ErrorIs(t, err, ErrInsufficientData)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Outcomes.WithLabelValues("analyzed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Outcomes.WithLabelValues("throttled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Outcomes.WithLabelValues("suspended")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InsufficientData))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.PipelineSeconds))
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MinInterval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Weights.MismatchPenalty = 0.8
	_, err := NewSession(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.CriticalPressure = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
