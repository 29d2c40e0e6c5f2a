// Package ranking provides the normalized component calculations used to
// rank recommendation candidates, with calibration support for the blend
// weights.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	params := ranking.Params{
//		Location:   ranking.ProximityWeight(distanceKm, ranking.DefaultMaxDistanceKm),
//		Preference: ranking.PreferenceWeight(shared, union, universe, ranking.DefaultFairnessAlpha),
//		Rating:     ranking.RatingWeight(avgRating, ranking.DefaultMaxRating),
//	}
//	score := ranking.Round(ranking.CompositeScore(params, weights), 2)
//
// Weight Functions:
//
// All weight functions return values in the [0, 1] range so that, with
// blend weights summing to 1, the composite score also lies in [0, 1].
//
// Calibration:
//
// Blend weights are loaded from a JSON file at startup. Missing or zero
// fields fall back to the defaults (rating 0.5, preference 0.3, location
// 0.2). See configs/ranking.calibration.json.
package ranking
