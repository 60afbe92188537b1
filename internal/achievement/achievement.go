// Package achievement defines unlockable goals and evaluates them against progress.
package achievement

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

// ErrUnknownKind is returned when decoding a requirement with an unrecognized kind.
var ErrUnknownKind = errors.New("unknown requirement kind")

var validate = validator.New()

// Kind tags a requirement variant in its serialized form.
type Kind string

const (
	KindFirstDrawing    Kind = "first-drawing"
	KindStreak          Kind = "streak"
	KindCount           Kind = "count"
	KindCategoryMastery Kind = "category-mastery"
)

// Requirement is one of FirstDrawing, Streak, Count or CategoryMastery.
type Requirement interface {
	Kind() Kind
	requirement()
}

// FirstDrawing is met by the first stored attempt.
type FirstDrawing struct{}

// Streak is met by Length consecutive correct attempts.
type Streak struct {
	Length int `json:"length" validate:"gte=1"`
}

// Count is met once enough attempts are stored.
type Count struct {
	Attempts    int  `json:"attempts" validate:"gte=1"`
	CorrectOnly bool `json:"correct_only,omitempty"`
}

// CategoryMastery is met by a high mean accuracy over enough attempts in one category.
type CategoryMastery struct {
	Category    model.LessonCategory `json:"category" validate:"oneof=shapes lines curves mastery"`
	MinAttempts int                  `json:"min_attempts" validate:"gte=1"`
	MinAccuracy float64              `json:"min_accuracy" validate:"gt=0,lte=1"`
}

func (FirstDrawing) Kind() Kind    { return KindFirstDrawing }
func (Streak) Kind() Kind          { return KindStreak }
func (Count) Kind() Kind           { return KindCount }
func (CategoryMastery) Kind() Kind { return KindCategoryMastery }

func (FirstDrawing) requirement()    {}
func (Streak) requirement()          {}
func (Count) requirement()           {}
func (CategoryMastery) requirement() {}

// Achievement is an unlockable goal.
type Achievement struct {
	ID          string      `json:"id" validate:"required"`
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description,omitempty"`
	Requirement Requirement `json:"requirement" validate:"required"`
}

// Met reports whether progress satisfies r.
func Met(r Requirement, p model.Progress) bool {
	switch req := r.(type) {
	case FirstDrawing:
		return p.Attempts > 0
	case Streak:
		return p.BestStreak >= req.Length
	case Count:
		if req.CorrectOnly {
			return p.Correct >= req.Attempts
		}
		return p.Attempts >= req.Attempts
	case CategoryMastery:
		cat := p.ByCategory[req.Category]
		if cat.Attempts < req.MinAttempts {
			return false
		}
		return cat.AccuracySum/float64(cat.Attempts) >= req.MinAccuracy
	default:
		return false
	}
}

// Newly returns the achievements met by progress that are not in unlocked.
func Newly(all []Achievement, p model.Progress, unlocked map[string]struct{}) []Achievement {
	var out []Achievement
	for _, a := range all {
		if _, ok := unlocked[a.ID]; ok {
			continue
		}
		if Met(a.Requirement, p) {
			out = append(out, a)
		}
	}
	return out
}

// Builtin returns the default achievements.
func Builtin() []Achievement {
	all := []Achievement{
		{ID: "first-drawing", Title: "First Stroke", Description: "Finish your first drawing.", Requirement: FirstDrawing{}},
		{ID: "streak-5", Title: "Steady Hand", Description: "Five correct strokes in a row.", Requirement: Streak{Length: 5}},
		{ID: "streak-15", Title: "In the Zone", Description: "Fifteen correct strokes in a row.", Requirement: Streak{Length: 15}},
		{ID: "count-50", Title: "Sketchbook", Description: "Draw fifty strokes.", Requirement: Count{Attempts: 50}},
		{ID: "correct-100", Title: "Centurion", Description: "One hundred correct strokes.", Requirement: Count{Attempts: 100, CorrectOnly: true}},
	}
	for _, cat := range model.Categories {
		all = append(all, Achievement{
			ID:          "mastery-" + string(cat),
			Title:       "Master of " + string(cat),
			Description: fmt.Sprintf("Average 85%% over 20 %s strokes.", cat),
			Requirement: CategoryMastery{Category: cat, MinAttempts: 20, MinAccuracy: 0.85},
		})
	}
	return all
}

// LoadFile appends the achievements in a JSON file to base.
// A missing file returns base unchanged.
func LoadFile(path string, base []Achievement) ([]Achievement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to read achievements: %w", err)
	}
	var custom []Achievement
	if err := json.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	seen := make(map[string]struct{}, len(base)+len(custom))
	out := make([]Achievement, 0, len(base)+len(custom))
	for _, a := range append(append([]Achievement(nil), base...), custom...) {
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// MarshalJSON writes the requirement with its kind tag.
func (a Achievement) MarshalJSON() ([]byte, error) {
	req, err := EncodeRequirement(a.Requirement)
	if err != nil {
		return nil, err
	}
	type plain Achievement
	return json.Marshal(struct {
		plain
		Requirement json.RawMessage `json:"requirement"`
	}{plain: plain(a), Requirement: req})
}

// UnmarshalJSON reads an achievement and validates it.
func (a *Achievement) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Requirement json.RawMessage `json:"requirement"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	req, err := DecodeRequirement(raw.Requirement)
	if err != nil {
		return fmt.Errorf("achievement %q: %w", raw.ID, err)
	}
	decoded := Achievement{ID: raw.ID, Title: raw.Title, Description: raw.Description, Requirement: req}
	if err := validate.Struct(decoded); err != nil {
		return fmt.Errorf("invalid achievement %q: %w", raw.ID, err)
	}
	*a = decoded
	return nil
}

// EncodeRequirement serializes r with an explicit kind field.
func EncodeRequirement(r Requirement) ([]byte, error) {
	switch req := r.(type) {
	case FirstDrawing:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
		}{KindFirstDrawing})
	case Streak:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			Streak
		}{KindStreak, req})
	case Count:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			Count
		}{KindCount, req})
	case CategoryMastery:
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			CategoryMastery
		}{KindCategoryMastery, req})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, r)
	}
}

// DecodeRequirement reads a requirement by its kind field.
func DecodeRequirement(data []byte) (Requirement, error) {
	var tag struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}

	var req Requirement
	switch tag.Kind {
	case KindFirstDrawing:
		req = FirstDrawing{}
	case KindStreak:
		var v Streak
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		req = v
	case KindCount:
		var v Count
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		req = v
	case KindCategoryMastery:
		var v CategoryMastery
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		req = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, tag.Kind)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid %s requirement: %w", tag.Kind, err)
	}
	return req, nil
}
