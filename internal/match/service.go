package match

import (
	"context"

	"github.com/onnwee/skillmatch/internal/tracing"
)

// Service composes pool assembly and ranking for a requester id.
type Service struct {
	pool        *PoolBuilder
	recommender *Recommender
}

// NewService creates a Service.
func NewService(pool *PoolBuilder, recommender *Recommender) *Service {
	return &Service{pool: pool, recommender: recommender}
}

// RecommendFor returns ranked candidates for requesterID.
func (s *Service) RecommendFor(ctx context.Context, requesterID string) (_ []ScoredCandidate, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "match.recommend_for")
	defer func() { endSpan(err) }()

	requester, pool, err := s.pool.BuildPool(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.recommender.Recommend(ctx, requester, pool)
}
