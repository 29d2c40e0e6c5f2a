package interest

import (
	"context"
	"log/slog"

	"github.com/onnwee/skillmatch/internal/profile"
	"github.com/onnwee/skillmatch/internal/ranking"
)

// UniverseSizer provides the hobby universe size.
type UniverseSizer interface {
	Size(ctx context.Context) (int, error)
}

// Scorer computes the interest overlap component.
type Scorer struct {
	universe UniverseSizer
	alpha    float64
	logger   *slog.Logger
}

// NewScorer creates a Scorer using ranking.DefaultFairnessAlpha.
func NewScorer(universe UniverseSizer, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		universe: universe,
		alpha:    ranking.DefaultFairnessAlpha,
		logger:   logger,
	}
}

// Score returns the overlap between two hobby sets in [0, 1]:
// Jaccard similarity plus alpha times the intersection's share of the
// universe. Either set empty scores 0. If the universe is unavailable the
// union size stands in for it.
func (s *Scorer) Score(ctx context.Context, hobbiesA, hobbiesB []string) float64 {
	if len(hobbiesA) == 0 || len(hobbiesB) == 0 {
		return 0
	}

	intersection, union := profile.Overlap(hobbiesA, hobbiesB)
	if intersection == 0 {
		return 0
	}

	universe, err := s.universe.Size(ctx)
	if err != nil {
		s.logger.Warn("hobby universe unavailable, using union size", "error", err)
		universe = 0
	}

	return ranking.PreferenceWeight(intersection, union, universe, s.alpha)
}
