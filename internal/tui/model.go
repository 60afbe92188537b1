// Package tui provides the Bubble Tea drawing interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/canvas"
	"github.com/verte-zerg/sketchcoach/internal/engine"
	"github.com/verte-zerg/sketchcoach/internal/generator"
	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/guide"
	"github.com/verte-zerg/sketchcoach/internal/model"
	"github.com/verte-zerg/sketchcoach/internal/pressure"
	statsPkg "github.com/verte-zerg/sketchcoach/internal/stats"
)

const (
	strokeLayer = 0
	guideLayer  = 1

	headerRows    = 1
	chromeRows    = 4
	panelWidth    = 36
	minCanvasCols = 20
	minCanvasRows = 8
	guideMargin   = 4

	defaultRoundSize = 10
	maxFinalRetries  = 5
)

// Store is the persistence the practice screen needs.
type Store interface {
	InsertSession(ctx context.Context, stats model.SessionStats, attempts []model.AttemptStats) (int64, error)
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	GetWeakShapes(ctx context.Context, window int, category model.LessonCategory) ([]model.ShapeAggregate, error)
	Progress(ctx context.Context) (model.Progress, error)
	UnlockAchievement(ctx context.Context, id string, at time.Time) (bool, error)
	ListAchievements(ctx context.Context) ([]model.UnlockedAchievement, error)
}

// Options wires the practice screen.
type Options struct {
	Practice model.PracticeConfig
	Catalog  *guide.Catalog
	// Shapes are the guides a round draws from.
	Shapes []model.ShapeID
	// NewSession starts the analysis session for a round.
	NewSession   func() (*engine.Session, error)
	Store        Store
	Generator    *generator.Generator
	WeakSet      map[model.ShapeID]struct{}
	Monitor      *pressure.Monitor
	Achievements []achievement.Achievement
	Logger       *log.Logger
	RoundSize    int
	Now          func() time.Time
}

type analysisMsg struct {
	seq     int
	final   bool
	tries   int
	outcome engine.Outcome
	err     error
}

type retryMsg struct {
	seq   int
	tries int
}

// Model implements the Bubble Tea drawing UI.
type Model struct {
	practice     model.PracticeConfig
	catalog      *guide.Catalog
	shapes       []model.ShapeID
	newSession   func() (*engine.Session, error)
	store        Store
	gen          *generator.Generator
	weakSet      map[model.ShapeID]struct{}
	monitor      *pressure.Monitor
	achievements []achievement.Achievement
	logger       *log.Logger
	roundSize    int
	now          func() time.Time

	keys keyMap
	help help.Model

	width  int
	height int
	canvas *canvas.Canvas
	bounds geometry.Rect

	session      *engine.Session
	round        []model.ShapeID
	roundIdx     int
	roundStarted time.Time
	attempts     []model.AttemptStats
	guide        *model.GuideReference

	stroke      []model.Point
	strokeSeq   int
	strokeStart time.Time
	drawing     bool
	scored      bool
	report      *engine.Report
	status      string
	unlockedNow []string

	progress model.Progress
	unlocked map[string]struct{}

	lastAcc     float64
	hasLast     bool
	allAttempts int
	allAccSum   float64
}

// NewModel constructs a drawing TUI model and starts the first round.
func NewModel(opts Options) (*Model, error) {
	if opts.Catalog == nil || opts.Store == nil || opts.NewSession == nil {
		return nil, errors.New("tui: catalog, store and session factory are required")
	}
	if len(opts.Shapes) == 0 {
		return nil, errors.New("tui: no shapes to practice")
	}
	m := &Model{
		practice:     opts.Practice,
		catalog:      opts.Catalog,
		shapes:       opts.Shapes,
		newSession:   opts.NewSession,
		store:        opts.Store,
		gen:          opts.Generator,
		weakSet:      opts.WeakSet,
		monitor:      opts.Monitor,
		achievements: opts.Achievements,
		logger:       opts.Logger,
		roundSize:    opts.RoundSize,
		now:          opts.Now,
		keys:         defaultKeyMap(),
		help:         help.New(),
		unlocked:     map[string]struct{}{},
	}
	if m.gen == nil {
		m.gen = generator.New()
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if m.roundSize <= 0 {
		m.roundSize = defaultRoundSize
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.loadProgress()
	m.loadFooterStats()
	if err := m.startRound(); err != nil {
		return nil, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case analysisMsg:
		return m, m.handleAnalysis(msg)
	case retryMsg:
		if msg.seq != m.strokeSeq {
			return m, nil
		}
		return m, m.analyzeCmd(true, msg.tries)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.finishRound()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Clear):
		m.resetStroke()
		m.status = ""
	case key.Matches(msg, m.keys.Next):
		if !m.drawing {
			m.nextShape()
		}
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		p, ok := m.canvasPoint(msg.X, msg.Y)
		if !ok {
			return nil
		}
		if m.scored {
			m.nextShape()
			return nil
		}
		m.beginStroke(p)
		return nil
	case tea.MouseActionMotion:
		if !m.drawing {
			return nil
		}
		p, ok := m.canvasPoint(msg.X, msg.Y)
		if !ok || !m.extendStroke(p) {
			return nil
		}
		return m.analyzeCmd(false, 0)
	case tea.MouseActionRelease:
		if !m.drawing {
			return nil
		}
		m.drawing = false
		if p, ok := m.canvasPoint(msg.X, msg.Y); ok {
			m.extendStroke(p)
		}
		return m.analyzeCmd(true, 0)
	default:
		return nil
	}
}

func (m *Model) handleAnalysis(msg analysisMsg) tea.Cmd {
	if msg.seq != m.strokeSeq {
		return nil
	}
	if msg.err != nil {
		if !msg.final {
			return nil
		}
		if errors.Is(msg.err, engine.ErrInsufficientData) {
			m.status = "Stroke too short. Try again."
		} else {
			m.logger.Error("failed to analyze stroke", "err", msg.err)
			m.status = "Could not score that stroke. Try again."
		}
		m.resetStroke()
		return nil
	}

	switch msg.outcome.Kind {
	case engine.Analyzed:
		m.report = msg.outcome.Report
		if msg.final {
			m.recordAttempt(msg.outcome.Report)
		}
		return nil
	case engine.Suspended:
		m.status = "Analysis paused while memory is low."
	}
	if !msg.final {
		return nil
	}
	if msg.tries >= maxFinalRetries {
		m.status = "Could not score that stroke. Try again."
		m.resetStroke()
		return nil
	}
	seq, tries := msg.seq, msg.tries+1
	return tea.Tick(m.session.State().MinInterval, func(time.Time) tea.Msg {
		return retryMsg{seq: seq, tries: tries}
	})
}

func (m *Model) analyzeCmd(final bool, tries int) tea.Cmd {
	if m.guide == nil || m.session == nil {
		return nil
	}
	req := engine.Request{
		Stroke: model.Stroke{
			Points:  append([]model.Point(nil), m.stroke...),
			GuideID: m.guide.Shape,
		},
		Guide:          m.guide,
		Level:          m.practice.Level,
		MemoryPressure: m.pressureLevel(),
	}
	session, seq := m.session, m.strokeSeq
	return func() tea.Msg {
		out, err := session.Analyze(context.Background(), req)
		return analysisMsg{seq: seq, final: final, tries: tries, outcome: out, err: err}
	}
}

func (m *Model) pressureLevel() int {
	if m.monitor == nil {
		return pressure.Normal
	}
	level, err := m.monitor.Level()
	if err != nil {
		m.logger.Debug("failed to sample memory", "err", err)
	}
	return level
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	cols := max(width-panelWidth-1, minCanvasCols)
	rows := max(height-chromeRows, minCanvasRows)
	m.canvas = canvas.New(cols, rows, 2)
	m.bounds = geometry.Rect{
		MinX: guideMargin,
		MinY: guideMargin,
		MaxX: float64(m.canvas.DotWidth() - guideMargin),
		MaxY: float64(m.canvas.DotHeight() - guideMargin),
	}
	m.resetStroke()
	m.loadGuide()
}

// canvasPoint maps a terminal cell to the centre of its dot block.
func (m *Model) canvasPoint(x, y int) (model.Point, bool) {
	if m.canvas == nil {
		return model.Point{}, false
	}
	row := y - headerRows
	if x < 0 || row < 0 || x >= m.canvas.Width() || row >= m.canvas.Height() {
		return model.Point{}, false
	}
	return model.Point{
		X: float64(x*canvas.DotsPerCellX + canvas.DotsPerCellX/2),
		Y: float64(row*canvas.DotsPerCellY + canvas.DotsPerCellY/2),
	}, true
}

func (m *Model) beginStroke(p model.Point) {
	m.resetStroke()
	m.drawing = true
	m.strokeStart = m.now()
	if m.roundStarted.IsZero() {
		m.roundStarted = m.strokeStart
	}
	m.stroke = append(m.stroke, p)
	m.canvas.Set(strokeLayer, int(p.X), int(p.Y))
	m.status = ""
}

// extendStroke appends p unless it repeats the last point.
func (m *Model) extendStroke(p model.Point) bool {
	last := m.stroke[len(m.stroke)-1]
	if last.X == p.X && last.Y == p.Y {
		return false
	}
	p.Timestamp = float64(m.now().Sub(m.strokeStart).Microseconds()) / 1000
	m.stroke = append(m.stroke, p)
	m.canvas.Line(strokeLayer, toDot(last), toDot(p))
	return true
}

func (m *Model) resetStroke() {
	m.strokeSeq++
	m.stroke = nil
	m.drawing = false
	m.scored = false
	m.report = nil
	m.unlockedNow = nil
	if m.canvas != nil {
		m.canvas.Clear(strokeLayer)
	}
}

func (m *Model) recordAttempt(report *engine.Report) {
	now := m.now()
	duration := int64(0)
	if n := len(m.stroke); n > 0 {
		duration = int64(math.Round(m.stroke[n-1].Timestamp - m.stroke[0].Timestamp))
	}
	attempt := model.AttemptStats{
		Shape:               m.guide.Shape,
		Category:            m.guide.Category,
		Accuracy:            report.Score.Accuracy,
		IsCorrect:           report.Score.IsCorrect,
		TemporalAccuracy:    report.Score.TemporalAccuracy,
		VelocityConsistency: report.Score.VelocityConsistency,
		Confidence:          report.Score.ConfidenceScore,
		DurationMs:          duration,
		CreatedAt:           now,
	}
	m.attempts = append(m.attempts, attempt)
	m.progress.Add(attempt.Category, attempt.Accuracy, attempt.IsCorrect)
	m.unlockAchievements(now)
	m.scored = true
	m.status = "Click or press enter for the next shape."
}

func (m *Model) unlockAchievements(at time.Time) {
	ctx := context.Background()
	for _, a := range achievement.Newly(m.achievements, m.progress, m.unlocked) {
		m.unlocked[a.ID] = struct{}{}
		if _, err := m.store.UnlockAchievement(ctx, a.ID, at); err != nil {
			m.logger.Error("failed to save achievement", "id", a.ID, "err", err)
			continue
		}
		m.logger.Info("achievement unlocked", "id", a.ID)
		m.unlockedNow = append(m.unlockedNow, a.Title)
	}
}

func (m *Model) nextShape() {
	m.resetStroke()
	m.status = ""
	m.roundIdx++
	if m.roundIdx < len(m.round) {
		m.loadGuide()
		return
	}
	m.finishRound()
	if err := m.startRound(); err != nil {
		m.logger.Error("failed to start round", "err", err)
		m.status = "Could not start a new round."
	}
}

func (m *Model) startRound() error {
	session, err := m.newSession()
	if err != nil {
		return fmt.Errorf("failed to start analysis session: %w", err)
	}
	m.session = session
	m.round = m.generateRound()
	m.roundIdx = 0
	m.roundStarted = time.Time{}
	m.attempts = nil
	m.loadGuide()
	return nil
}

func (m *Model) generateRound() []model.ShapeID {
	if m.practice.FocusWeak && len(m.weakSet) > 0 {
		return m.gen.GenerateWeighted(m.shapes, m.roundSize, m.weakSet, m.practice.WeakFactor)
	}
	return m.gen.Generate(m.shapes, m.roundSize)
}

func (m *Model) loadGuide() {
	if m.canvas == nil || m.roundIdx >= len(m.round) {
		return
	}
	shape := m.round[m.roundIdx]
	ref, err := m.catalog.Reference(shape, m.bounds)
	if err != nil {
		m.logger.Error("failed to build guide", "shape", shape, "err", err)
		m.guide = nil
		return
	}
	m.guide = ref
	m.canvas.Clear(guideLayer)
	dots := make([]canvas.Dot, len(ref.Path))
	for i, p := range ref.Path {
		dots[i] = toDot(p)
	}
	m.canvas.Path(guideLayer, dots)
	if ref.Closed && len(dots) > 1 {
		m.canvas.Line(guideLayer, dots[len(dots)-1], dots[0])
	}
}

// finishRound stores the round's attempts and ends its analysis session.
func (m *Model) finishRound() {
	if m.session == nil {
		return
	}
	defer m.session.End()
	if len(m.attempts) == 0 {
		return
	}
	stats := model.SessionStats{
		UUID:      m.session.ID().String(),
		StartedAt: m.roundStarted,
		EndedAt:   m.now(),
		Category:  m.practice.Category,
		Level:     m.practice.Level,
	}
	ctx := context.Background()
	if _, err := m.store.InsertSession(ctx, stats, m.attempts); err != nil {
		m.logger.Error("failed to save session", "err", err)
	}

	var accSum float64
	for _, a := range m.attempts {
		accSum += a.Accuracy
	}
	m.lastAcc = accSum / float64(len(m.attempts))
	m.hasLast = true
	m.allAttempts += len(m.attempts)
	m.allAccSum += accSum
	m.attempts = nil

	if m.practice.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) loadProgress() {
	ctx := context.Background()
	progress, err := m.store.Progress(ctx)
	if err != nil {
		m.logger.Error("failed to load progress", "err", err)
	} else {
		m.progress = progress
	}
	unlocked, err := m.store.ListAchievements(ctx)
	if err != nil {
		m.logger.Error("failed to load achievements", "err", err)
		return
	}
	for _, u := range unlocked {
		m.unlocked[u.ID] = struct{}{}
	}
}

func (m *Model) loadFooterStats() {
	ctx := context.Background()
	sessions, err := m.store.ListSessions(ctx, model.StatsConfig{Category: m.practice.Category})
	if err != nil {
		m.logger.Error("failed to load session stats", "err", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastAcc, _, _ = statsPkg.AttemptMetrics(last.Attempts, last.Correct, last.AccuracySum, last.DurationMs)
	m.hasLast = true
	for _, s := range sessions {
		m.allAttempts += s.Attempts
		m.allAccSum += s.AccuracySum
	}
}

func (m *Model) refreshWeakSet() {
	ctx := context.Background()
	aggs, err := m.store.GetWeakShapes(ctx, m.practice.WeakWindow, m.practice.Category)
	if err != nil {
		m.logger.Error("failed to load weak shapes", "err", err)
		return
	}
	m.weakSet = statsPkg.SelectWeakShapes(aggs, m.practice.WeakTop)
}

func toDot(p model.Point) canvas.Dot {
	return canvas.Dot{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}
