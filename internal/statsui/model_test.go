package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sketchcoach/internal/achievement"
	"github.com/verte-zerg/sketchcoach/internal/model"
	"github.com/verte-zerg/sketchcoach/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	attempts := []model.AttemptStats{
		{Shape: "circle", Category: model.CategoryShapes, Accuracy: 0.9, IsCorrect: true, DurationMs: 1800, CreatedAt: start},
		{Shape: "circle", Category: model.CategoryShapes, Accuracy: 0.8, IsCorrect: true, DurationMs: 1700, CreatedAt: start},
		{Shape: "star", Category: model.CategoryMastery, Accuracy: 0.4, DurationMs: 2600, CreatedAt: start},
	}
	_, err = st.InsertSession(ctx, model.SessionStats{UUID: "s1", StartedAt: start, EndedAt: start.Add(time.Minute)}, attempts)
	require.NoError(t, err)
	_, err = st.UnlockAchievement(ctx, "first-drawing", start)
	require.NoError(t, err)
	return st
}

func TestModelRendersTabs(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 5}, achievement.Builtin())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Overview")
	assert.Contains(t, view, "Strokes")
	assert.Contains(t, view, "category=any")
	assert.Equal(t, []model.ShapeID{"circle", "star"}, m.shapes.selected)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabShapeTable, m.activeTab)
	assert.Contains(t, m.View(), "circle")

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, tabAchievements, m.activeTab)
	view = m.View()
	assert.Contains(t, view, "Unlocked 1 of")
	assert.Contains(t, view, "First Stroke")
}

func TestFilterFormParse(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 5, Shapes: "circle"}, nil)
	field := func(i int) *textinput.Model { return &m.form.fields[i].input }

	assert.Equal(t, "5", field(3).Value())

	field(0).SetValue("portraits")
	_, err := m.form.parse(m.cfg)
	assert.ErrorContains(t, err, "invalid category")

	field(0).SetValue("Mastery")
	field(1).SetValue("2026-04-01")
	field(2).SetValue("3")
	field(3).SetValue("10")
	cfg, err := m.form.parse(m.cfg)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryMastery, cfg.Category)
	assert.Equal(t, 3, cfg.Last)
	assert.Equal(t, 10, cfg.CurveWindow)
	assert.Equal(t, "circle", cfg.Shapes)
	require.NotNil(t, cfg.Since)

	field(3).SetValue("0")
	_, err = m.form.parse(m.cfg)
	assert.Error(t, err)

	field(3).SetValue("")
	cfg, err = m.form.parse(m.cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.CurveWindow)
}

func TestSettingsOverlayAppliesOnEnter(t *testing.T) {
	m := NewModel(seededStore(t), model.StatsConfig{CurveWindow: 5}, achievement.Builtin())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.True(t, m.filter)
	assert.Contains(t, m.View(), "Curve window: ")

	m.form.fields[2].input.SetValue("1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.filter)
	assert.Equal(t, 1, m.cfg.Last)
	assert.Contains(t, m.View(), "last=1")
}

func TestShapeRowsSortedByAttempts(t *testing.T) {
	rows := shapeRows([]model.ShapeAggregate{
		{Shape: "star", Attempts: 1, AccuracySum: 0.4, DurationSum: 2600},
		{Shape: "zig-zag", Attempts: 4, Correct: 3, AccuracySum: 3.2, DurationSum: 6000},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "zig zag", rows[0][0])
	assert.Equal(t, "80.00%", rows[0][1])
	assert.Equal(t, "1500", rows[0][2])
	assert.Equal(t, "star", rows[1][0])
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []model.ShapeID{"circle", "star", "wave"}, parseShapes(" Circle,star  wave,"))
	assert.Nil(t, parseShapes("  "))
	assert.Equal(t, "circle, star", joinShapes([]model.ShapeID{"circle", "star"}))
	assert.Equal(t, 5, nextCurveWindow(1))
	assert.Equal(t, 15, nextCurveWindow(12))
	assert.Equal(t, 10, prevCurveWindow(12))
	assert.Equal(t, 1, prevCurveWindow(5))
	assert.Equal(t, 5, prevCurveWindow(10))
	assert.Equal(t, "abc...", truncateLine("abcdefgh", 6))

	fitted := fitLines("a\nb\nc", 2, 2)
	assert.Equal(t, []string{"a ", "b "}, strings.Split(fitted, "\n"))
}
