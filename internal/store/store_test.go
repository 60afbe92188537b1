package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "sketchcoach.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func attempt(shape model.ShapeID, category model.LessonCategory, acc float64, at time.Time) model.AttemptStats {
	return model.AttemptStats{
		Shape:      shape,
		Category:   category,
		Accuracy:   acc,
		IsCorrect:  acc >= model.CorrectThreshold,
		Confidence: 0.5,
		DurationMs: 1000,
		CreatedAt:  at,
	}
}

func insertSession(t *testing.T, st *Store, uuid string, start time.Time, category model.LessonCategory, attempts ...model.AttemptStats) int64 {
	t.Helper()
	id, err := st.InsertSession(context.Background(), model.SessionStats{
		UUID:      uuid,
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
		Category:  category,
		Level:     model.LevelBeginner,
	}, attempts)
	require.NoError(t, err)
	return id
}

func TestSessionsAndShapeAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	first := insertSession(t, st, "s1", base, model.CategoryShapes,
		attempt("circle", model.CategoryShapes, 0.9, base),
		attempt("circle", model.CategoryShapes, 0.5, base.Add(time.Second)),
		attempt("square", model.CategoryShapes, 0.8, base.Add(2*time.Second)),
	)
	second := insertSession(t, st, "s2", base.Add(time.Hour), model.CategoryLines,
		attempt("line", model.CategoryLines, 0.95, base.Add(time.Hour)),
	)
	empty := insertSession(t, st, "s3", base.Add(2*time.Hour), model.CategoryShapes)

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []int64{first, second, empty}, []int64{sessions[0].SessionID, sessions[1].SessionID, sessions[2].SessionID})
	assert.Equal(t, 3, sessions[0].Attempts)
	assert.Equal(t, 2, sessions[0].Correct)
	assert.InDelta(t, 2.2, sessions[0].AccuracySum, 1e-9)
	assert.Equal(t, int64(3000), sessions[0].DurationMs)
	assert.Zero(t, sessions[2].Attempts)

	shapesOnly, err := st.ListSessions(ctx, model.StatsConfig{Category: model.CategoryShapes})
	require.NoError(t, err)
	assert.Len(t, shapesOnly, 2)
	since := base.Add(30 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	aggs, err := st.ListShapeAggregatesForSessions(ctx, []int64{first, second})
	require.NoError(t, err)
	byShape := map[model.ShapeID]model.ShapeAggregate{}
	for _, agg := range aggs {
		byShape[agg.Shape] = agg
	}
	assert.Equal(t, 2, byShape["circle"].Attempts)
	assert.Equal(t, 1, byShape["circle"].Correct)
	assert.InDelta(t, 1.4, byShape["circle"].AccuracySum, 1e-9)
	assert.Equal(t, 1, byShape["line"].Attempts)

	perSession, err := st.ListShapeStatsForSessions(ctx, []int64{first, second}, []model.ShapeID{"circle", "line"})
	require.NoError(t, err)
	assert.Equal(t, 2, perSession[first]["circle"].Attempts)
	assert.Equal(t, 1, perSession[second]["line"].Attempts)
	_, hasSquare := perSession[first]["square"]
	assert.False(t, hasSquare)
}

func TestGetWeakShapesUsesRecentSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	insertSession(t, st, "old", base, model.CategoryShapes, attempt("triangle", model.CategoryShapes, 0.1, base))
	insertSession(t, st, "new", base.Add(time.Hour), model.CategoryShapes,
		attempt("circle", model.CategoryShapes, 0.4, base.Add(time.Hour)),
		attempt("wave", model.CategoryCurves, 0.3, base.Add(time.Hour)),
	)

	aggs, err := st.GetWeakShapes(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, aggs, 2)

	aggs, err = st.GetWeakShapes(ctx, 1, model.CategoryCurves)
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, model.ShapeID("wave"), aggs[0].Shape)

	aggs, err = st.GetWeakShapes(ctx, 0, "")
	require.NoError(t, err)
	assert.Nil(t, aggs)
}

func TestProgressTracksStreaks(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	insertSession(t, st, "p", base, model.CategoryShapes,
		attempt("circle", model.CategoryShapes, 0.9, base),
		attempt("circle", model.CategoryShapes, 0.8, base.Add(time.Second)),
		attempt("circle", model.CategoryShapes, 0.75, base.Add(2*time.Second)),
		attempt("star", model.CategoryMastery, 0.2, base.Add(3*time.Second)),
		attempt("line", model.CategoryLines, 0.9, base.Add(4*time.Second)),
	)

	progress, err := st.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, progress.Attempts)
	assert.Equal(t, 4, progress.Correct)
	assert.Equal(t, 1, progress.Streak)
	assert.Equal(t, 3, progress.BestStreak)
	assert.Equal(t, 3, progress.ByCategory[model.CategoryShapes].Correct)
	assert.Equal(t, 1, progress.ByCategory[model.CategoryMastery].Attempts)
	assert.Zero(t, progress.ByCategory[model.CategoryMastery].Correct)
}

func TestAchievements(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	unlocked, err := st.UnlockAchievement(ctx, "first-circle", at)
	require.NoError(t, err)
	assert.True(t, unlocked)
	unlocked, err = st.UnlockAchievement(ctx, "first-circle", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, unlocked)
	_, err = st.UnlockAchievement(ctx, "streak-5", at.Add(time.Minute))
	require.NoError(t, err)

	list, err := st.ListAchievements(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first-circle", list[0].ID)
	assert.True(t, at.Equal(list[0].UnlockedAt))
	assert.Equal(t, "streak-5", list[1].ID)
}

func TestInsertSessionRejectsDuplicateUUID(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	insertSession(t, st, "dup", base, model.CategoryShapes)

	_, err := st.InsertSession(context.Background(), model.SessionStats{UUID: "dup", StartedAt: base, EndedAt: base}, []model.AttemptStats{
		attempt("circle", model.CategoryShapes, 0.9, base),
	})
	require.Error(t, err)

	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestReopenKeepsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketchcoach.db")
	st, err := Open(path)
	require.NoError(t, err)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	insertSession(t, st, "kept", base, model.CategoryShapes, attempt("circle", model.CategoryShapes, 0.9, base))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var version int
	require.NoError(t, st.db.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)
	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestStoredTimesSortAcrossZonesAndFractions(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	east := time.FixedZone("UTC+3", 3*60*60)

	late := insertSession(t, st, "late", base.Add(500*time.Millisecond), model.CategoryShapes)
	early := insertSession(t, st, "early", base.In(east), model.CategoryShapes)

	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, []int64{early, late}, []int64{sessions[0].SessionID, sessions[1].SessionID})
	assert.True(t, base.Add(time.Minute).Equal(sessions[0].EndedAt))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
