package testutil

import (
	"testing"

	"github.com/hupe1980/kanon/loss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformTable(t *testing.T) {
	rng := NewRNG(4711)

	data := rng.UniformTable(8, 3)

	assert.Len(t, data, 8)
	assert.Len(t, data[0], 3)
	assert.Less(t, data[0][0], 1.0)
	assert.GreaterOrEqual(t, data[1][0], 0.0)
}

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	first := rng.Uint64()
	rng.Reset()
	assert.Equal(t, first, rng.Uint64())
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestClusteredTable(t *testing.T) {
	rng := NewRNG(4711)

	data := rng.ClusteredTable(3, 5, 2, 0.1)

	require.Len(t, data, 15)
	// Records of different groups are far apart.
	assert.Greater(t, data[5][0]-data[4][0], 5.0)
	assert.Greater(t, data[10][1]-data[9][1], 5.0)
}

func TestCategoricalTable(t *testing.T) {
	rng := NewRNG(4711)

	data, hierarchies := rng.CategoricalTable(50)

	require.Len(t, data, 50)
	require.Len(t, hierarchies, 2)

	oracle, err := loss.NewHierarchical(data, hierarchies)
	require.NoError(t, err)
	assert.Equal(t, 50, oracle.NumRecords())
	assert.Equal(t, 2, oracle.NumAttributes())
}

func TestHierarchies(t *testing.T) {
	ages := AgeHierarchy()
	assert.Len(t, ages, 40)
	assert.Equal(t, []string{"37", "35-39", "30-39", "*"}, ages[17])

	zips := ZipHierarchy()
	assert.Len(t, zips, 27)
	assert.Equal(t, []string{"30000", "3000*", "300**", "30***", "*****"}, zips[0])
}
