// Package pressure maps process memory use to the levels the engine admits against.
package pressure

import (
	"errors"
	"fmt"
	"runtime/metrics"

	"github.com/dustin/go-humanize"
)

// Levels reported by a Monitor.
const (
	Normal   = 0
	Elevated = 1
	Critical = 2
)

const heapObjects = "/memory/classes/heap/objects:bytes"

// Collector returns the current memory use in bytes.
type Collector func() (uint64, error)

// Monitor compares a Collector sample against soft and critical limits.
type Monitor struct {
	soft     uint64
	critical uint64
	collect  Collector
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithCollector replaces the runtime heap collector.
func WithCollector(c Collector) Option {
	return func(m *Monitor) {
		if c != nil {
			m.collect = c
		}
	}
}

// New returns a Monitor. Limits are sizes like "256MB"; critical must exceed soft.
func New(soft, critical string, opts ...Option) (*Monitor, error) {
	softBytes, err := humanize.ParseBytes(soft)
	if err != nil {
		return nil, fmt.Errorf("failed to parse soft limit: %w", err)
	}
	criticalBytes, err := humanize.ParseBytes(critical)
	if err != nil {
		return nil, fmt.Errorf("failed to parse critical limit: %w", err)
	}
	if softBytes == 0 || criticalBytes <= softBytes {
		return nil, fmt.Errorf("critical limit %s must exceed soft limit %s", critical, soft)
	}
	m := &Monitor{soft: softBytes, critical: criticalBytes, collect: HeapObjects}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Level samples memory and returns Normal, Elevated or Critical.
// A failed sample reports Normal together with the error.
func (m *Monitor) Level() (int, error) {
	used, err := m.collect()
	if err != nil {
		return Normal, err
	}
	return m.levelFor(used), nil
}

func (m *Monitor) levelFor(used uint64) int {
	switch {
	case used >= m.critical:
		return Critical
	case used >= m.soft:
		return Elevated
	default:
		return Normal
	}
}

// String describes the configured limits.
func (m *Monitor) String() string {
	return fmt.Sprintf("soft=%s critical=%s", humanize.Bytes(m.soft), humanize.Bytes(m.critical))
}

// HeapObjects reads live heap object bytes from runtime/metrics.
func HeapObjects() (uint64, error) {
	sample := []metrics.Sample{{Name: heapObjects}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0, errors.New("heap metric unsupported")
	}
	return sample[0].Value.Uint64(), nil
}
