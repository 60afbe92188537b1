package stats

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sketchcoach/internal/model"
)

// Source is the slice of the store a report reads from.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	ListShapeAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.ShapeAggregate, error)
}

// Report is the data behind every stats view. Sessions are oldest first and
// already cut to StatsConfig.Last; the window covers the newest CurveWindow of them.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	ShapeAggsAll     []model.ShapeAggregate
	ShapeAggsWindow  []model.ShapeAggregate
}

// BuildReport loads sessions and their per-shape aggregates.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions = newest(sessions, cfg.Last)
	r := Report{
		Sessions:         sessions,
		WindowSessionIDs: sessionIDs(newest(sessions, cfg.CurveWindow)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.ShapeAggsAll, err = src.ListShapeAggregatesForSessions(gctx, sessionIDs(sessions))
		return err
	})
	g.Go(func() (err error) {
		r.ShapeAggsWindow, err = src.ListShapeAggregatesForSessions(gctx, r.WindowSessionIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("failed to aggregate shapes: %w", err)
	}
	return r, nil
}

// newest keeps the last n sessions; n <= 0 keeps all.
func newest(sessions []model.SessionAggregate, n int) []model.SessionAggregate {
	if n <= 0 || len(sessions) <= n {
		return sessions
	}
	return sessions[len(sessions)-n:]
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
