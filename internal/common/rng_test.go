package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubSeedStable(t *testing.T) {
	assert.Equal(t, SubSeed(42, "POS-1"), SubSeed(42, "POS-1"))
	assert.NotEqual(t, SubSeed(42, "POS-1"), SubSeed(42, "POS-2"))
	assert.NotEqual(t, SubSeed(42, "POS-1"), SubSeed(43, "POS-1"))
}

func TestWeightedIndex(t *testing.T) {
	rng := NewRand(1)

	assert.Equal(t, -1, WeightedIndex(rng, nil))

	// A dominant weight should win most draws.
	counts := make([]int, 3)
	for i := 0; i < 1000; i++ {
		idx := WeightedIndex(rng, []float64{0.9, 0.05, 0.05})
		counts[idx]++
	}
	assert.Greater(t, counts[0], 700)

	// Zero or negative weights never get picked when others are positive.
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, WeightedIndex(rng, []float64{0, 1, -3}))
	}

	// All non-positive falls back to uniform, still a valid index.
	for i := 0; i < 100; i++ {
		idx := WeightedIndex(rng, []float64{0, 0})
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 2)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-2, 0, 1))
	assert.Equal(t, 1.0, Clamp(7, 0, 1))
}
