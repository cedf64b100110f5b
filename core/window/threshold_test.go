package window

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAboveThresholdNonOverlapping(t *testing.T) {
	samples := series(halfHour, 70, 75, 20, 90, 85, 10, 60)
	windows, err := AboveThreshold(samples, time.Hour, 70, Options{})
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, base, windows[0].StartTime)
	assert.Equal(t, 72.5, windows[0].CleanEnergyPercentage)
	assert.Equal(t, base.Add(3*halfHour), windows[1].StartTime)
	assert.Equal(t, 87.5, windows[1].CleanEnergyPercentage)
	assert.False(t, windows[0].Overlaps(windows[1]))
}

func TestAboveThresholdSortedByStart(t *testing.T) {
	samples := series(halfHour, 90, 10, 10, 95, 10, 92)
	windows, err := AboveThreshold(samples, halfHour, 80, Options{})
	require.NoError(t, err)
	require.Len(t, windows, 3)
	for i := 1; i < len(windows); i++ {
		assert.True(t, windows[i-1].StartTime.Before(windows[i].StartTime))
	}
}

func TestAboveThresholdNoneReach(t *testing.T) {
	samples := series(halfHour, 10, 20, 30)
	windows, err := AboveThreshold(samples, halfHour, 50, Options{})
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestAboveThresholdErrors(t *testing.T) {
	samples := series(halfHour, 10, 20, 30)
	_, err := AboveThreshold(samples, halfHour, 120, Options{})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = AboveThreshold(samples, halfHour, math.NaN(), Options{})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = AboveThreshold(samples, halfHour, 10, Options{Epsilon: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = AboveThreshold(samples, 3*time.Hour, 10, Options{})
	assert.ErrorIs(t, err, ErrInsufficientData)

	gapped := append(series(halfHour, 10, 20)[:1], series(halfHour, 10, 20, 30)[2:]...)
	_, err = AboveThreshold(gapped, time.Hour, 0, Options{})
	assert.ErrorIs(t, err, ErrInsufficientData)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AboveThresholdContext(ctx, samples, halfHour, 10, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectorAboveThreshold(t *testing.T) {
	sel := NewSelector(Options{PartialEdges: PartialEdgesOff})
	windows, err := sel.AboveThreshold(series(halfHour, 20, 80, 30), time.Hour, 55)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 55.0, windows[0].CleanEnergyPercentage)
}

func TestAboveThresholdNearTiesFollowTieBreak(t *testing.T) {
	// Hour candidates score 70, 70, 70.0000002 and 70.0000004: all tie.
	samples := series(halfHour, 70, 70, 70, 70.0000004, 70.0000004)

	windows, err := AboveThreshold(samples, time.Hour, 60, Options{})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, base, windows[0].StartTime)
	assert.Equal(t, base.Add(time.Hour), windows[1].StartTime)

	windows, err = AboveThreshold(samples, time.Hour, 60, Options{TieBreak: TieBreakLatest})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, base.Add(halfHour), windows[0].StartTime)
	assert.Equal(t, base.Add(3*halfHour), windows[1].StartTime)
}
