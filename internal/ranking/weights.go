package ranking

import "math"

const (
	// DefaultMaxDistanceKm is the distance at and beyond which proximity scores 0.
	DefaultMaxDistanceKm = 10000.0

	// DefaultMaxRating is the top of the peer rating scale.
	DefaultMaxRating = 5.0

	// DefaultFairnessAlpha scales the shared-interest bonus relative to the
	// size of the hobby universe.
	DefaultFairnessAlpha = 0.2
)

// ProximityWeight converts a distance into a proximity score in [0, 1] using
// linear decay: 1 at zero distance, 0 at or beyond maxKm.
//
// A non-positive maxKm falls back to DefaultMaxDistanceKm. Negative distances
// are clamped to 0.
func ProximityWeight(distanceKm, maxKm float64) float64 {
	if maxKm <= 0 {
		maxKm = DefaultMaxDistanceKm
	}
	if math.IsNaN(distanceKm) || distanceKm >= maxKm {
		return 0.0
	}
	if distanceKm < 0 {
		distanceKm = 0
	}
	return 1.0 - distanceKm/maxKm
}

// PreferenceWeight computes the interest overlap score:
//
//	intersection/union + alpha * (intersection/universe)
//
// The universe is the number of distinct hobbies across all users. A universe
// smaller than the union (stale or unavailable aggregate) is replaced with
// max(1, union). The result is clamped to 1.
func PreferenceWeight(intersection, union, universe int, alpha float64) float64 {
	if intersection <= 0 || union <= 0 {
		return 0.0
	}
	if universe < union {
		universe = union
	}
	if universe < 1 {
		universe = 1
	}

	score := float64(intersection)/float64(union) +
		alpha*(float64(intersection)/float64(universe))

	return clamp01(score)
}

// RatingWeight normalizes an average rating to [0, 1]. Non-positive averages
// score 0.
func RatingWeight(average, maxRating float64) float64 {
	if maxRating <= 0 {
		maxRating = DefaultMaxRating
	}
	if math.IsNaN(average) || average <= 0 {
		return 0.0
	}
	return clamp01(average / maxRating)
}

// Params holds the normalized component scores of one candidate.
type Params struct {
	Location   float64 // Proximity score [0, 1]
	Preference float64 // Interest overlap score [0, 1]
	Rating     float64 // Reputation score [0, 1]
}

// CompositeScore combines the component scores with the calibrated weights.
//
// Default formula: composite_score = (rating * 0.5) + (preference * 0.3) + (location * 0.2)
//
// A nil weights argument uses DefaultWeights.
func CompositeScore(params Params, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	return (params.Rating * weights.Rating) +
		(params.Preference * weights.Preference) +
		(params.Location * weights.Location)
}

// Round rounds score half away from zero to the given number of decimals.
func Round(score float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(score*p) / p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
