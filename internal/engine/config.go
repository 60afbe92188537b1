package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/verte-zerg/sketchcoach/internal/align"
	"github.com/verte-zerg/sketchcoach/internal/fusion"
)

const (
	DefaultMinInterval       = 200 * time.Millisecond
	DefaultCriticalPressure  = 2
	DefaultClassifierTimeout = 50 * time.Millisecond
)

// ErrInvalidConfig is returned by NewSession for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid engine config")

var validate = validator.New()

// Config tunes one analysis session.
type Config struct {
	// MinInterval is the shortest gap between two executed analyses.
	MinInterval time.Duration `validate:"gt=0,lte=10s"`
	// CriticalPressure is the memory pressure level at which analysis is suspended.
	CriticalPressure int `validate:"gte=1"`
	// ClassifierTimeout bounds a single classifier call.
	ClassifierTimeout time.Duration `validate:"gt=0,lte=5s"`
	// ScaleFactor is the fraction of the guide diagonal that maps to zero accuracy.
	ScaleFactor float64 `validate:"gt=0,lte=1"`
	Weights     fusion.Weights
}

// DefaultConfig returns the default session settings.
func DefaultConfig() Config {
	return Config{
		MinInterval:       DefaultMinInterval,
		CriticalPressure:  DefaultCriticalPressure,
		ClassifierTimeout: DefaultClassifierTimeout,
		ScaleFactor:       align.DefaultScaleFactor,
		Weights:           fusion.DefaultWeights(),
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
