package pressure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelThresholds(t *testing.T) {
	var used uint64
	m, err := New("100MB", "200MB", WithCollector(func() (uint64, error) { return used, nil }))
	require.NoError(t, err)

	cases := []struct {
		used uint64
		want int
	}{
		{0, Normal},
		{99_999_999, Normal},
		{100_000_000, Elevated},
		{199_999_999, Elevated},
		{200_000_000, Critical},
		{1 << 40, Critical},
	}
	for _, tc := range cases {
		used = tc.used
		got, err := m.Level()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "used=%d", tc.used)
	}
	assert.Equal(t, "soft=100 MB critical=200 MB", m.String())
}

func TestLevelCollectorError(t *testing.T) {
	boom := errors.New("boom")
	m, err := New("1MB", "2MB", WithCollector(func() (uint64, error) { return 0, boom }))
	require.NoError(t, err)
	level, err := m.Level()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Normal, level)
}

func TestNewRejectsBadLimits(t *testing.T) {
	_, err := New("lots", "2MB")
	assert.Error(t, err)
	_, err = New("2MB", "1MB")
	assert.Error(t, err)
	_, err = New("0", "1MB")
	assert.Error(t, err)
}

func TestHeapObjectsReadsRuntime(t *testing.T) {
	used, err := HeapObjects()
	require.NoError(t, err)
	assert.Positive(t, used)
}
