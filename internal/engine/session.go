// Package engine schedules stroke analyses for one drawing session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/sketchcoach/internal/align"
	"github.com/verte-zerg/sketchcoach/internal/classifier"
	"github.com/verte-zerg/sketchcoach/internal/fusion"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

var (
	// ErrInsufficientData is returned for strokes with fewer than two usable points.
	ErrInsufficientData = errors.New("stroke has fewer than two points")
	// ErrInvalidGuide is returned when the guide is missing or malformed.
	ErrInvalidGuide = errors.New("invalid guide")
	// ErrSessionEnded is returned by Analyze after End.
	ErrSessionEnded = errors.New("session ended")
	// ErrPipeline wraps a failure recovered from inside the pipeline.
	ErrPipeline = errors.New("analysis failed")
)

// Phase is the scheduler state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnalyzing
	PhaseThrottled
	PhaseSuspended
)

func (p Phase) String() string {
	switch p {
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseThrottled:
		return "throttled"
	case PhaseSuspended:
		return "suspended"
	default:
		return "idle"
	}
}

// SchedulerState is a snapshot of the session scheduler.
type SchedulerState struct {
	Phase        Phase
	LastAnalysis time.Time
	MinInterval  time.Duration
	// MemoryPressure is the level supplied with the latest request.
	MemoryPressure int
}

// OutcomeKind tells whether an analysis ran.
type OutcomeKind int

const (
	Analyzed OutcomeKind = iota
	Throttled
	Suspended
)

func (k OutcomeKind) String() string {
	switch k {
	case Throttled:
		return "throttled"
	case Suspended:
		return "suspended"
	default:
		return "analyzed"
	}
}

// Request is one stroke-update event.
type Request struct {
	Stroke         model.Stroke
	Guide          *model.GuideReference
	Level          model.SkillLevel
	MemoryPressure int
}

// Report is everything produced by one executed analysis.
type Report struct {
	Feedback    model.Feedback
	Score       model.FusedScore
	Alignment   model.AlignmentResult
	Classifier  *model.ClassifierResult
	Diagnostics fusion.Diagnostics
}

// Outcome is the result of Analyze. Report is nil unless Kind is Analyzed.
type Outcome struct {
	Kind   OutcomeKind
	Report *Report
	// Pressure is the level that caused a suspension.
	Pressure int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the collectors the session reports to.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClassifier sets the shape classifier. Without one, scores rely on alignment only.
func WithClassifier(c classifier.Classifier) Option {
	return func(s *Session) { s.classifier = c }
}

// WithClock replaces time.Now for scheduling decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session owns the scheduler state of one drawing session.
type Session struct {
	id         uuid.UUID
	cfg        Config
	aligner    *align.Aligner
	classifier classifier.Classifier
	logger     *log.Logger
	metrics    *Metrics
	now        func() time.Time

	mu       sync.Mutex
	limiter  *rate.Limiter
	state    SchedulerState
	inFlight bool
	ended    bool
}

// NewSession validates cfg and returns an idle session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:      uuid.New(),
		cfg:     cfg,
		aligner: align.New(cfg.ScaleFactor),
		logger:  log.New(io.Discard),
		now:     time.Now,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		state:   SchedulerState{Phase: PhaseIdle, MinInterval: cfg.MinInterval},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.classifier != nil {
		s.classifier = classifier.WithDeadline(s.classifier, cfg.ClassifierTimeout)
	}
	s.logger = s.logger.With("session", s.id.String())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns a snapshot of the scheduler state.
func (s *Session) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// End tears the session down. Later calls to Analyze fail with ErrSessionEnded.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}

// Analyze handles one stroke-update event. Throttled and suspended events are
// reported as outcomes without a report; the caller keeps its previous feedback.
func (s *Session) Analyze(ctx context.Context, req Request) (Outcome, error) {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()
	if ended {
		return Outcome{}, ErrSessionEnded
	}

	points := usablePoints(req.Stroke.Points)
	if len(points) < 2 {
		if s.metrics != nil {
			s.metrics.InsufficientData.Inc()
		}
		return Outcome{}, ErrInsufficientData
	}
	if err := checkGuide(req.Guide, req.Stroke.GuideID); err != nil {
		return Outcome{}, err
	}

	now, out, admitted := s.admit(req.MemoryPressure)
	if !admitted {
		s.metrics.observe(out.Kind)
		return out, nil
	}
	defer s.finish(now)

	report, err := s.run(ctx, req, points)
	if err != nil {
		s.logger.Error("analysis failed", "guide", req.Guide.Shape, "err", err)
		return Outcome{}, err
	}
	s.metrics.observe(Analyzed)
	return Outcome{Kind: Analyzed, Report: report}, nil
}

// admit runs the scheduler transition for a new event.
func (s *Session) admit(pressure int) (time.Time, Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.state.MemoryPressure = pressure
	if pressure >= s.cfg.CriticalPressure {
		if !s.inFlight {
			s.state.Phase = PhaseSuspended
		}
		s.logger.Debug("analysis suspended", "pressure", pressure)
		return now, Outcome{Kind: Suspended, Pressure: pressure}, false
	}
	if s.inFlight {
		s.logger.Debug("analysis throttled", "reason", "in flight")
		return now, Outcome{Kind: Throttled}, false
	}
	if !s.limiter.AllowN(now, 1) {
		s.state.Phase = PhaseThrottled
		s.logger.Debug("analysis throttled", "since_last", now.Sub(s.state.LastAnalysis))
		return now, Outcome{Kind: Throttled}, false
	}
	s.inFlight = true
	s.state.Phase = PhaseAnalyzing
	return now, Outcome{}, true
}

func (s *Session) finish(started time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.state.Phase = PhaseIdle
	s.state.LastAnalysis = started
}

func usablePoints(points []model.Point) []model.Point {
	out := points[:0:0]
	for _, p := range points {
		if finite(p.X) && finite(p.Y) && finite(p.Timestamp) {
			out = append(out, p)
		}
	}
	return out
}

func checkGuide(g *model.GuideReference, strokeGuide model.ShapeID) error {
	if g == nil {
		return fmt.Errorf("%w: no guide", ErrInvalidGuide)
	}
	if g.Shape == "" {
		return fmt.Errorf("%w: guide has no shape", ErrInvalidGuide)
	}
	if strokeGuide != "" && strokeGuide != g.Shape {
		return fmt.Errorf("%w: stroke traced %q but guide is %q", ErrInvalidGuide, strokeGuide, g.Shape)
	}
	if len(g.Path) < 2 {
		return fmt.Errorf("%w: %s path has %d points", ErrInvalidGuide, g.Shape, len(g.Path))
	}
	for i, p := range g.Path {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: %s point %d is not finite", ErrInvalidGuide, g.Shape, i)
		}
	}
	if g.Pacing != nil && !(g.Pacing.ExpectedDurationMs > 0) {
		return fmt.Errorf("%w: %s pacing must be positive", ErrInvalidGuide, g.Shape)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
