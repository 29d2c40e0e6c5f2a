package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
)

// ErrInvalidWeights is returned by Validate when weights are negative or do
// not sum to 1.
var ErrInvalidWeights = errors.New("invalid ranking weights")

// weightSumTolerance allows for float noise in hand-edited calibration files.
const weightSumTolerance = 1e-6

// Weights defines the blend weights of the recommendation score.
type Weights struct {
	Rating     float64 `json:"rating"`     // Weight for peer reputation (default: 0.5)
	Preference float64 `json:"preference"` // Weight for shared interests (default: 0.3)
	Location   float64 `json:"location"`   // Weight for geographic proximity (default: 0.2)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configuration
}

// DefaultWeights returns the default blend weights.
//
// Formula: total = (rating * 0.5) + (preference * 0.3) + (location * 0.2)
// - Reputation dominates so well-reviewed partners surface first
// - Shared hobbies break ties between similarly rated users
// - Proximity is a mild nudge; remote sessions are common
func DefaultWeights() *Weights {
	return &Weights{
		Rating:     0.5,
		Preference: 0.3,
		Location:   0.2,
	}
}

// Validate reports whether every weight is non-negative and the weights sum to 1.
func (w *Weights) Validate() error {
	if w.Rating < 0 || w.Preference < 0 || w.Location < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	sum := w.Rating + w.Preference + w.Location
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// LoadCalibration loads blend weights from a JSON calibration file.
// An empty path returns the defaults. If the file can't be read, parsed, or
// the merged weights fail validation, the defaults are returned together
// with the error so callers can log and continue.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	if err := merged.Validate(); err != nil {
		slog.Warn("calibration weights rejected, using defaults",
			"path", filePath,
			"error", err)
		return defaults, err
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights onto base weights.
// Only non-zero values from the override are applied, which allows partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}

	result := *base
	if override == nil {
		return &result
	}

	if override.Rating != 0 {
		result.Rating = override.Rating
	}
	if override.Preference != 0 {
		result.Preference = override.Preference
	}
	if override.Location != 0 {
		result.Location = override.Location
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Rating != defaults.Rating {
		overrides = append(overrides, fmt.Sprintf("rating: %.2f -> %.2f",
			defaults.Rating, loaded.Rating))
	}
	if loaded.Preference != defaults.Preference {
		overrides = append(overrides, fmt.Sprintf("preference: %.2f -> %.2f",
			defaults.Preference, loaded.Preference))
	}
	if loaded.Location != defaults.Location {
		overrides = append(overrides, fmt.Sprintf("location: %.2f -> %.2f",
			defaults.Location, loaded.Location))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
