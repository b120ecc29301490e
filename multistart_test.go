package kanon

import (
	"context"
	"testing"

	"github.com/hupe1980/kanon/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBest(t *testing.T) {
	rows := testutil.NewRNG(17).UniformTable(90, 2)
	v := newVariance(t, rows)
	ctx := context.Background()

	best, total, err := RunBest(ctx, v, 4, 0.6, 1.8, 6, 3, WithSeed(99))
	require.NoError(t, err)
	requireValid(t, best, 90, 4)
	assert.InDelta(t, best.Statistics.FinalLoss, total.FinalLoss, 1e-12)
	assert.Equal(t, best.Statistics.NumberOfClusters, total.NumberOfClusters)
	assert.GreaterOrEqual(t, total.Rounds, 6)

	for i := range 6 {
		a, err := New(v, 4, WithSeed(deriveSeed(99, uint64(i))))
		require.NoError(t, err)
		res, err := a.Execute(ctx, 0.6, 1.8)
		require.NoError(t, err)
		assert.LessOrEqual(t, best.Statistics.FinalLoss, res.Statistics.FinalLoss)
	}

	again, _, err := RunBest(ctx, v, 4, 0.6, 1.8, 6, 2, WithSeed(99))
	require.NoError(t, err)
	assert.Equal(t, best.Clusters, again.Clusters)
}

func TestRunBest_Errors(t *testing.T) {
	v := newVariance(t, separated())
	ctx := context.Background()

	_, _, err := RunBest(ctx, v, 5, 1, 2, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = RunBest(ctx, v, 5, 1, 2, 2, 1, WithInitialPartition([][]int{{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = RunBest(ctx, v, 5, 1, 2, 2, 1, WithRand(testutil.NewRand(1)))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = RunBest(ctx, v, 0, 1, 2, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, _, err = RunBest(ctx, v, 5, 1, 3, 2, 1)
	var pe *ErrInvalidParameter
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "omega", pe.Name)
}

func TestRunBest_SharesMetrics(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	_, total, err := RunBest(context.Background(), newVariance(t, separated()), 5, 1, 2, 4, 0,
		WithSeed(1), WithMetricsCollector(metrics))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(4), stats.RunCount)
	assert.Equal(t, int64(total.RecordsMoved), stats.RecordsMoved)
}

func TestDeriveSeed(t *testing.T) {
	seen := make(map[uint64]bool)
	for base := uint64(0); base < 4; base++ {
		for stream := uint64(0); stream < 64; stream++ {
			s := deriveSeed(base, stream)
			assert.False(t, seen[s], "base %d stream %d", base, stream)
			seen[s] = true
		}
	}
	assert.Equal(t, deriveSeed(7, 3), deriveSeed(7, 3))

	// Shifting a unit between base and stream must change the seed.
	assert.NotEqual(t, deriveSeed(1, 1), deriveSeed(0, 2))
	assert.NotEqual(t, deriveSeed(2, 0), deriveSeed(0, 2))
	assert.NotEqual(t, deriveSeed(3, 5), deriveSeed(5, 3))
}
