package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

const insertAttempt = `INSERT INTO attempts (session_id, shape, category, accuracy, is_correct,
		temporal_accuracy, velocity_consistency, confidence, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// shapeColumns aggregates attempt rows per shape.
const shapeColumns = `COUNT(*), SUM(is_correct), SUM(accuracy), SUM(duration_ms)`

// InsertSession stores a finished session and its attempts atomically.
func (s *Store) InsertSession(ctx context.Context, session model.SessionStats, attempts []model.AttemptStats) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (uuid, started_at, ended_at, category, level) VALUES (?, ?, ?, ?, ?)`,
			session.UUID, formatTime(session.StartedAt), formatTime(session.EndedAt),
			string(session.Category), string(session.Level))
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		if len(attempts) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, insertAttempt)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, a := range attempts {
			correct := 0
			if a.IsCorrect {
				correct = 1
			}
			_, err := stmt.ExecContext(ctx, id, string(a.Shape), string(a.Category),
				a.Accuracy, correct, a.TemporalAccuracy, a.VelocityConsistency,
				a.Confidence, a.DurationMs, formatTime(a.CreatedAt))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert session %s: %w", session.UUID, err)
	}
	return id, nil
}

// GetWeakShapes aggregates attempts per shape over the window most recent
// sessions, optionally limited to one category.
func (s *Store) GetWeakShapes(ctx context.Context, window int, category model.LessonCategory) ([]model.ShapeAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	return queryAll(ctx, s.db, scanShapeAggregate, `
		SELECT shape, `+shapeColumns+`
		FROM attempts
		WHERE session_id IN (SELECT id FROM sessions ORDER BY ended_at DESC LIMIT ?)
			AND (? = '' OR category = ?)
		GROUP BY shape`,
		window, string(category), string(category))
}

// ListSessions returns per-session totals, oldest first, filtered by category
// and start date. Sessions without attempts are included.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	var where []string
	var args []any
	if cfg.Category != "" {
		where = append(where, "s.category = ?")
		args = append(args, string(cfg.Category))
	}
	if cfg.Since != nil {
		where = append(where, "s.ended_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	filter := ""
	if len(where) > 0 {
		filter = "WHERE " + strings.Join(where, " AND ")
	}
	query := `SELECT s.id, s.ended_at, COUNT(a.id), COALESCE(SUM(a.is_correct), 0),
			COALESCE(SUM(a.accuracy), 0), COALESCE(SUM(a.duration_ms), 0)
		FROM sessions s
		LEFT JOIN attempts a ON a.session_id = s.id
		` + filter + `
		GROUP BY s.id
		ORDER BY s.ended_at ASC, s.id ASC`
	return queryAll(ctx, s.db, func(rows *sql.Rows) (model.SessionAggregate, error) {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &endedAt, &agg.Attempts, &agg.Correct, &agg.AccuracySum, &agg.DurationMs); err != nil {
			return agg, err
		}
		var err error
		agg.EndedAt, err = parseTime(endedAt)
		return agg, err
	}, query, args...)
}

// ListShapeAggregatesForSessions aggregates attempts per shape across sessions.
func (s *Store) ListShapeAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.ShapeAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT shape, %s FROM attempts WHERE session_id IN (%s) GROUP BY shape`,
		shapeColumns, placeholders(len(sessionIDs)))
	return queryAll(ctx, s.db, scanShapeAggregate, query, anySlice(sessionIDs)...)
}

// ListShapeStatsForSessions returns per-session aggregates for the given shapes,
// keyed by session then shape. Absent pairs had no attempts.
func (s *Store) ListShapeStatsForSessions(ctx context.Context, sessionIDs []int64, shapes []model.ShapeID) (map[int64]map[model.ShapeID]model.ShapeAggregate, error) {
	result := map[int64]map[model.ShapeID]model.ShapeAggregate{}
	if len(sessionIDs) == 0 || len(shapes) == 0 {
		return result, nil
	}
	query := fmt.Sprintf(`SELECT session_id, shape, %s FROM attempts
		WHERE session_id IN (%s) AND shape IN (%s)
		GROUP BY session_id, shape`,
		shapeColumns, placeholders(len(sessionIDs)), placeholders(len(shapes)))
	args := append(anySlice(sessionIDs), anySlice(shapes)...)

	type keyed struct {
		session int64
		agg     model.ShapeAggregate
	}
	rows, err := queryAll(ctx, s.db, func(rows *sql.Rows) (keyed, error) {
		var k keyed
		err := rows.Scan(&k.session, &k.agg.Shape, &k.agg.Attempts, &k.agg.Correct, &k.agg.AccuracySum, &k.agg.DurationSum)
		return k, err
	}, query, args...)
	if err != nil {
		return nil, err
	}
	for _, k := range rows {
		if result[k.session] == nil {
			result[k.session] = map[model.ShapeID]model.ShapeAggregate{}
		}
		result[k.session][k.agg.Shape] = k.agg
	}
	return result, nil
}

// Progress replays every stored attempt in insertion order.
func (s *Store) Progress(ctx context.Context) (model.Progress, error) {
	progress := model.Progress{ByCategory: map[model.LessonCategory]model.CategoryProgress{}}
	type outcome struct {
		category model.LessonCategory
		accuracy float64
		correct  bool
	}
	outcomes, err := queryAll(ctx, s.db, func(rows *sql.Rows) (outcome, error) {
		var o outcome
		err := rows.Scan(&o.category, &o.accuracy, &o.correct)
		return o, err
	}, `SELECT category, accuracy, is_correct FROM attempts ORDER BY id ASC`)
	if err != nil {
		return progress, err
	}
	for _, o := range outcomes {
		progress.Add(o.category, o.accuracy, o.correct)
	}
	return progress, nil
}

func scanShapeAggregate(rows *sql.Rows) (model.ShapeAggregate, error) {
	var agg model.ShapeAggregate
	err := rows.Scan(&agg.Shape, &agg.Attempts, &agg.Correct, &agg.AccuracySum, &agg.DurationSum)
	return agg, err
}
