// Package rating aggregates the seven per-category skill values into one
// overall rating via iterative numerical search.
//
// The idea: candidate ratings are probed until the lowest one that still
// "fits" is found. Every category contributes a power level that grows as the
// category exceeds the candidate; a candidate fits while the sum of power
// levels stays below 2^(candidate/10). Each pass halves the probe resolution.
package rating

import "math"

// Search constants shared by both call sites.
const (
	initialResolution = 10.24
	iterations        = 11
)

// Constants for chart-level aggregation (MSD).
const (
	chartFinalMultiplier = 1.11
	chartDeltaMultiplier = 0.25
)

// Constants for player-level aggregation.
const (
	playerFinalMultiplier = 1.0
	playerDeltaMultiplier = 0.1
)

// isRatingOkay reports whether candidate is at or above the aggregate level
// supported by the given category values.
func isRatingOkay(candidate float32, categories []float32, deltaMultiplier float32) bool {
	maxPowerSum := float32(math.Pow(2, float64(candidate)/10))

	var powerSum float32
	for _, c := range categories {
		power := 2/float32(math.Erfc(float64(deltaMultiplier*(c-candidate)))) - 2
		if power > 0 {
			powerSum += power
		}
	}

	return powerSum < maxPowerSum
}

// Calculate runs the iterative refinement over the given categories.
// Deterministic: same inputs always produce the same float32 output.
func Calculate(categories []float32, numIters uint32, addResX2 bool, finalMultiplier, deltaMultiplier float32) float32 {
	var rating float32
	resolution := float32(initialResolution)

	// Repeatedly approximate the final rating, with better resolution each time.
	for i := uint32(0); i < numIters; i++ {
		for !isRatingOkay(rating+resolution, categories, deltaMultiplier) {
			rating += resolution
		}
		resolution /= 2
	}

	if addResX2 {
		rating += resolution * 2
	}
	return rating * finalMultiplier
}

// ChartOverall aggregates the seven skillset MSD values of a chart. A single
// very high category can exceed the blended aggregate, so the result is never
// below the maximum category.
func ChartOverall(categories [7]float32) float32 {
	aggregate := Calculate(categories[:], iterations, true, chartFinalMultiplier, chartDeltaMultiplier)

	maxCategory := categories[0]
	for _, c := range categories[1:] {
		if c > maxCategory {
			maxCategory = c
		}
	}

	if maxCategory > aggregate {
		return maxCategory
	}
	return aggregate
}

// PlayerOverall aggregates the seven skillset ratings of a player.
func PlayerOverall(categories [7]float32) float32 {
	return Calculate(categories[:], iterations, true, playerFinalMultiplier, playerDeltaMultiplier)
}
