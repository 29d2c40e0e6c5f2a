// Package reputation turns peer ratings into the reputation component of a
// recommendation score. Rating loads for one recommendation request are
// batched into a single store query.
package reputation

import (
	"context"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/onnwee/skillmatch/internal/profile"
	"github.com/onnwee/skillmatch/internal/ranking"
)

// DefaultBatchWait is how long the loader collects keys before querying.
const DefaultBatchWait = 2 * time.Millisecond

type loaderContextKey struct{}

// Average returns the mean rating value, or 0 when there are no ratings.
func Average(ratings []profile.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Rating
	}
	return sum / float64(len(ratings))
}

// Scorer computes average ratings and the normalized reputation score.
type Scorer struct {
	store     profile.RatingStore
	maxRating float64
	batchWait time.Duration
	metrics   *Metrics
	logger    *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithBatchWait sets how long the per-request loader waits to fill a batch.
func WithBatchWait(d time.Duration) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.batchWait = d
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScorer creates a reputation Scorer over store.
func NewScorer(store profile.RatingStore, opts ...Option) *Scorer {
	s := &Scorer{
		store:     store,
		maxRating: ranking.DefaultMaxRating,
		batchWait: DefaultBatchWait,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithBatching returns a context carrying a fresh rating loader. Concurrent
// AverageRating calls made with the returned context share store queries.
// The loader lives as long as the context; create one per request.
func (s *Scorer) WithBatching(ctx context.Context) context.Context {
	loader := dataloader.NewBatchedLoader[string, float64](
		s.batchFn,
		dataloader.WithWait[string, float64](s.batchWait),
	)
	return context.WithValue(ctx, loaderContextKey{}, loader)
}

// AverageRating returns the mean rating received by userID in [0, 5].
// No ratings or a failed fetch yields 0; fetch failures are logged.
func (s *Scorer) AverageRating(ctx context.Context, userID string) float64 {
	if loader, ok := ctx.Value(loaderContextKey{}).(*dataloader.Loader[string, float64]); ok {
		avg, err := loader.Load(ctx, userID)()
		if err != nil {
			s.logger.Warn("failed to load ratings", "user_id", userID, "error", err)
			return 0
		}
		return avg
	}

	ratings, err := s.store.ListByReviewedUsers(ctx, []string{userID})
	if err != nil {
		s.recordFetchError()
		s.logger.Warn("failed to load ratings", "user_id", userID, "error", err)
		return 0
	}
	return Average(ratings[userID])
}

// Score returns the normalized reputation score and the average it came from.
func (s *Scorer) Score(ctx context.Context, userID string) (score, average float64) {
	average = s.AverageRating(ctx, userID)
	return ranking.RatingWeight(average, s.maxRating), average
}

// batchFn loads ratings for every key in one store call.
func (s *Scorer) batchFn(ctx context.Context, keys []string) []*dataloader.Result[float64] {
	results := make([]*dataloader.Result[float64], len(keys))

	if s.metrics != nil {
		s.metrics.ObserveBatchSize(float64(len(keys)))
	}

	ratings, err := s.store.ListByReviewedUsers(ctx, keys)
	if err != nil {
		s.recordFetchError()
		for i := range results {
			results[i] = &dataloader.Result[float64]{Error: err}
		}
		return results
	}

	for i, key := range keys {
		results[i] = &dataloader.Result[float64]{Data: Average(ratings[key])}
	}
	return results
}

func (s *Scorer) recordFetchError() {
	if s.metrics != nil {
		s.metrics.IncFetchErrors()
	}
}
