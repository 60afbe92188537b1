package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

// UnlockAchievement records an achievement. It reports false when it was already unlocked.
func (s *Store) UnlockAchievement(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO achievements (id, unlocked_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id, formatTime(at))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListAchievements returns unlocked achievements, oldest first.
func (s *Store) ListAchievements(ctx context.Context) ([]model.UnlockedAchievement, error) {
	return queryAll(ctx, s.db, func(rows *sql.Rows) (model.UnlockedAchievement, error) {
		var rec model.UnlockedAchievement
		var at string
		if err := rows.Scan(&rec.ID, &at); err != nil {
			return rec, err
		}
		var err error
		rec.UnlockedAt, err = parseTime(at)
		return rec, err
	}, `SELECT id, unlocked_at FROM achievements ORDER BY unlocked_at ASC, id ASC`)
}
