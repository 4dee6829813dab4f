package common

import (
	"hash/fnv"
	"math/rand"
)

// NewRand returns a seeded pseudo-random source. The same seed always yields
// the same stream; callers that shard work must derive sub-seeds with SubSeed
// rather than share one generator across goroutines.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed)) //nolint:gosec // reproducibility is the point
}

// SubSeed derives a deterministic per-unit seed from a parent seed and a unit
// identifier, so parallel shards reproduce independently of scheduling order.
func SubSeed(parent int64, unit string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(unit))
	return parent ^ int64(h.Sum64()) //nolint:gosec // deliberate wraparound
}

// WeightedIndex picks an index from weights proportionally. Non-positive
// totals fall back to a uniform pick. An empty slice returns -1.
func WeightedIndex(rng *rand.Rand, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	target := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		target -= w
		if target < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
