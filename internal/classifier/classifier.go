// Package classifier adapts shape classifiers into an advisory, time-bounded signal.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/sketchcoach/internal/geometry"
	"github.com/verte-zerg/sketchcoach/internal/model"
)

// ErrUnavailable reports that no classification could be produced.
var ErrUnavailable = errors.New("classifier unavailable")

// Classifier labels a rasterized stroke.
type Classifier interface {
	Classify(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error)

// Classify implements Classifier.
func (f Func) Classify(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error) {
	return f(ctx, grid)
}

type reply struct {
	result model.ClassifierResult
	err    error
}

type deadlineClassifier struct {
	next    Classifier
	timeout time.Duration
}

// WithDeadline bounds how long a call to c may take. Every failure, panic,
// out-of-range result or expired deadline is reported as ErrUnavailable.
// A call that outlives the deadline keeps running but its result is dropped.
func WithDeadline(c Classifier, timeout time.Duration) Classifier {
	return &deadlineClassifier{next: c, timeout: timeout}
}

// Classify implements Classifier.
func (d *deadlineClassifier) Classify(ctx context.Context, grid *geometry.Grid) (model.ClassifierResult, error) {
	if d.next == nil {
		return model.ClassifierResult{}, fmt.Errorf("%w: no classifier configured", ErrUnavailable)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	replies := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply{err: fmt.Errorf("%w: classifier panicked: %v", ErrUnavailable, r)}
			}
		}()
		res, err := d.next.Classify(ctx, grid)
		replies <- reply{result: res, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil {
			if errors.Is(r.err, ErrUnavailable) {
				return model.ClassifierResult{}, r.err
			}
			return model.ClassifierResult{}, fmt.Errorf("%w: %w", ErrUnavailable, r.err)
		}
		if r.result.Label == "" || !(r.result.Confidence >= 0 && r.result.Confidence <= 1) {
			return model.ClassifierResult{}, fmt.Errorf("%w: invalid result %+v", ErrUnavailable, r.result)
		}
		return r.result, nil
	case <-ctx.Done():
		return model.ClassifierResult{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}
