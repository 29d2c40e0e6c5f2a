package match

import (
	"context"
	"log/slog"

	"github.com/onnwee/skillmatch/internal/geo"
	"github.com/onnwee/skillmatch/internal/profile"
	"github.com/onnwee/skillmatch/internal/ranking"
)

// Resolver maps a user's district and province to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, district, province string) (geo.Coordinate, error)
}

// DistanceScorer scores proximity with linear decay up to a maximum distance.
type DistanceScorer struct {
	resolver      Resolver
	maxDistanceKm float64
	logger        *slog.Logger
}

// NewDistanceScorer creates a DistanceScorer. A non-positive maxDistanceKm
// uses ranking.DefaultMaxDistanceKm.
func NewDistanceScorer(resolver Resolver, maxDistanceKm float64, logger *slog.Logger) *DistanceScorer {
	if maxDistanceKm <= 0 {
		maxDistanceKm = ranking.DefaultMaxDistanceKm
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DistanceScorer{
		resolver:      resolver,
		maxDistanceKm: maxDistanceKm,
		logger:        logger,
	}
}

// Score returns the proximity of a and b in [0, 1]. If either location
// can't be resolved the score is 0.
func (s *DistanceScorer) Score(ctx context.Context, a, b profile.UserProfile) float64 {
	from, err := s.resolver.Resolve(ctx, a.District, a.Province)
	if err != nil {
		s.logger.Debug("location unresolved, proximity 0", "user_id", a.ID, "error", err)
		return 0
	}
	to, err := s.resolver.Resolve(ctx, b.District, b.Province)
	if err != nil {
		s.logger.Debug("location unresolved, proximity 0", "user_id", b.ID, "error", err)
		return 0
	}

	return ranking.ProximityWeight(geo.DistanceKm(from, to), s.maxDistanceKm)
}
