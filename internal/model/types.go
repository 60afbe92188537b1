// Package model defines shared data structures.
package model

import "time"

// CorrectThreshold is the accuracy at or above which a stroke counts as correct.
const CorrectThreshold = 0.7

// ShapeID identifies a guide shape, e.g. "circle".
type ShapeID string

// LessonCategory groups guides into lessons.
type LessonCategory string

// Lesson categories.
const (
	CategoryShapes  LessonCategory = "shapes"
	CategoryLines   LessonCategory = "lines"
	CategoryCurves  LessonCategory = "curves"
	CategoryMastery LessonCategory = "mastery"
)

// Categories lists every lesson category in display order.
var Categories = []LessonCategory{CategoryShapes, CategoryLines, CategoryCurves, CategoryMastery}

// Valid reports whether c is a known category.
func (c LessonCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// SkillLevel is the user's self-reported drawing level.
type SkillLevel string

// Skill levels.
const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
)

// Valid reports whether l is a known level.
func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

// Point is a captured canvas sample. Timestamp is in milliseconds.
type Point struct {
	X         float64 `json:"x" yaml:"x" toml:"x"`
	Y         float64 `json:"y" yaml:"y" toml:"y"`
	Timestamp float64 `json:"t,omitempty" yaml:"t,omitempty" toml:"t,omitempty"`
}

// Stroke is an ordered point sequence drawn against a guide.
type Stroke struct {
	Points  []Point `json:"points" yaml:"points"`
	GuideID ShapeID `json:"guide" yaml:"guide"`
}

// Pacing describes how long a guide is expected to take to trace.
type Pacing struct {
	ExpectedDurationMs float64 `json:"expected_duration_ms" yaml:"expected-duration-ms" toml:"expected-duration-ms"`
}

// GuideReference is an immutable reference path in canvas coordinates.
type GuideReference struct {
	Shape    ShapeID
	Path     []Point
	Category LessonCategory
	Closed   bool
	Pacing   *Pacing
}

// Pair links a user path index to a reference path index.
type Pair struct {
	User int
	Ref  int
}

// AlignmentResult is the outcome of aligning a stroke with its guide.
// Cost is the length-normalized DTW cost in canvas units; NormalizedCost
// is Cost divided by the guide scale and clamped to [0,1].
type AlignmentResult struct {
	Cost           float64
	NormalizedCost float64
	MatchedPairs   []Pair
}

// ClassifierResult is the advisory output of the shape classifier.
type ClassifierResult struct {
	Label      ShapeID
	Confidence float64
}

// FusedScore combines alignment, classifier and timing signals.
type FusedScore struct {
	Accuracy            float64 `json:"accuracy" yaml:"accuracy"`
	IsCorrect           bool    `json:"is_correct" yaml:"is-correct"`
	TemporalAccuracy    float64 `json:"temporal_accuracy" yaml:"temporal-accuracy"`
	VelocityConsistency float64 `json:"velocity_consistency" yaml:"velocity-consistency"`
	ConfidenceScore     float64 `json:"confidence_score" yaml:"confidence-score"`
}

// Feedback is what the caller shows to the user.
type Feedback struct {
	OverallScore         float64  `json:"overall_score" yaml:"overall-score"`
	Suggestions          []string `json:"suggestions" yaml:"suggestions"`
	Encouragement        string   `json:"encouragement" yaml:"encouragement"`
	ShowVisualCorrection bool     `json:"show_visual_correction" yaml:"show-visual-correction"`
}

// PracticeConfig defines practice settings.
type PracticeConfig struct {
	Category   LessonCategory
	Level      SkillLevel
	Shapes     []ShapeID
	GuidesFile string
	FocusWeak  bool
	WeakTop    int
	WeakFactor float64
	WeakWindow int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Category    LessonCategory
	Since       *time.Time
	Last        int
	CurveWindow int
	Shapes      string
}

// SessionStats captures a completed drawing session.
type SessionStats struct {
	UUID      string
	StartedAt time.Time
	EndedAt   time.Time
	Category  LessonCategory
	Level     SkillLevel
}

// AttemptStats stores one finished stroke.
type AttemptStats struct {
	Shape               ShapeID
	Category            LessonCategory
	Accuracy            float64
	IsCorrect           bool
	TemporalAccuracy    float64
	VelocityConsistency float64
	Confidence          float64
	DurationMs          int64
	CreatedAt           time.Time
}

// ShapeAggregate aggregates attempts for one shape.
type ShapeAggregate struct {
	Shape       ShapeID
	Attempts    int
	Correct     int
	AccuracySum float64
	DurationSum int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID   int64
	EndedAt     time.Time
	Attempts    int
	Correct     int
	AccuracySum float64
	DurationMs  int64
}

// CategoryProgress counts attempts within one lesson category.
type CategoryProgress struct {
	Attempts    int
	Correct     int
	AccuracySum float64
}

// Progress summarizes every stored attempt for achievement checks.
type Progress struct {
	Attempts int
	Correct  int
	// Streak counts consecutive correct attempts ending with the latest one.
	Streak     int
	BestStreak int
	ByCategory map[LessonCategory]CategoryProgress
}

// Add folds one attempt into the progress, extending or breaking the streak.
func (p *Progress) Add(category LessonCategory, accuracy float64, correct bool) {
	if p.ByCategory == nil {
		p.ByCategory = map[LessonCategory]CategoryProgress{}
	}
	cat := p.ByCategory[category]
	cat.Attempts++
	cat.AccuracySum += accuracy
	p.Attempts++
	if correct {
		cat.Correct++
		p.Correct++
		p.Streak++
		p.BestStreak = max(p.BestStreak, p.Streak)
	} else {
		p.Streak = 0
	}
	p.ByCategory[category] = cat
}

// UnlockedAchievement records when an achievement was earned.
type UnlockedAchievement struct {
	ID         string
	UnlockedAt time.Time
}
