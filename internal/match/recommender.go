package match

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/skillmatch/internal/profile"
	"github.com/onnwee/skillmatch/internal/ranking"
	"github.com/onnwee/skillmatch/internal/tracing"
)

// DefaultConcurrency bounds how many candidates are scored at once.
const DefaultConcurrency = 8

// ProximityScorer scores how close two users live.
type ProximityScorer interface {
	Score(ctx context.Context, a, b profile.UserProfile) float64
}

// InterestScorer scores hobby overlap.
type InterestScorer interface {
	Score(ctx context.Context, hobbiesA, hobbiesB []string) float64
}

// ReputationScorer scores a user's peer ratings, returning the normalized
// score and the raw average.
type ReputationScorer interface {
	Score(ctx context.Context, userID string) (score, average float64)
}

// batcher is implemented by reputation scorers that can batch loads for the
// lifetime of a context.
type batcher interface {
	WithBatching(ctx context.Context) context.Context
}

// Breakdown holds the component scores behind a total.
type Breakdown struct {
	Location      float64 `json:"location"`
	Preference    float64 `json:"preference"`
	Rating        float64 `json:"rating"`
	AverageRating float64 `json:"average_rating"`
}

// ScoredCandidate is a candidate with its total score. Built fresh per call.
type ScoredCandidate struct {
	profile.UserProfile
	TotalScore float64   `json:"total_score"`
	Breakdown  Breakdown `json:"breakdown"`
}

// Config configures a Recommender.
type Config struct {
	// Weights blend the components. Defaults to ranking.DefaultWeights().
	Weights *ranking.Weights
	// Concurrency bounds parallel candidate scoring. Defaults to DefaultConcurrency.
	Concurrency int
	// Logger for recommendation activity.
	Logger *slog.Logger
	// Metrics for recommendation tracking.
	Metrics *Metrics
}

// Recommender filters and ranks candidates.
type Recommender struct {
	proximity  ProximityScorer
	interest   InterestScorer
	reputation ReputationScorer
	config     Config
}

// NewRecommender creates a Recommender from the three component scorers.
func NewRecommender(proximity ProximityScorer, interest InterestScorer, reputation ReputationScorer, config Config) *Recommender {
	if config.Weights == nil {
		config.Weights = ranking.DefaultWeights()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Recommender{
		proximity:  proximity,
		interest:   interest,
		reputation: reputation,
		config:     config,
	}
}

// Recommend filters pool for skill compatibility with requester, scores every
// survivor and returns them ordered by descending total score. Candidates
// with equal totals keep their filtered order.
//
// An empty result is not an error. Component failures score 0 and never
// surface; only cancellation of ctx aborts, returning ctx's error and no
// partial results.
func (r *Recommender) Recommend(ctx context.Context, requester profile.UserProfile, pool []profile.UserProfile) (_ []ScoredCandidate, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "match.recommend")
	defer func() { endSpan(err) }()

	start := time.Now()
	defer func() { r.observe(start, err) }()

	candidates, mode := FilterWithMode(requester, pool)
	tracing.SetAttributes(ctx,
		attribute.Int("match.pool_size", len(pool)),
		attribute.Int("match.candidates", len(candidates)),
		attribute.String("match.mode", string(mode)))
	if r.config.Metrics != nil {
		r.config.Metrics.IncFilterMode(string(mode))
		r.config.Metrics.ObserveCandidates(float64(len(candidates)))
	}

	if len(candidates) == 0 {
		r.config.Logger.Debug("no compatible candidates",
			"requester_id", requester.ID,
			"pool_size", len(pool))
		return []ScoredCandidate{}, nil
	}

	if b, ok := r.reputation.(batcher); ok {
		ctx = b.WithBatching(ctx)
	}

	results := make([]ScoredCandidate, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.score(gctx, requester, candidate)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Scores computed under a cancelled context may have degraded to 0.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalScore > results[j].TotalScore
	})

	r.config.Logger.Debug("recommendations ranked",
		"requester_id", requester.ID,
		"mode", mode,
		"candidates", len(results))

	return results, nil
}

// score computes one candidate's components and weighted total.
func (r *Recommender) score(ctx context.Context, requester, candidate profile.UserProfile) ScoredCandidate {
	ratingScore, average := r.reputation.Score(ctx, candidate.ID)

	params := ranking.Params{
		Location:   r.proximity.Score(ctx, requester, candidate),
		Preference: r.interest.Score(ctx, requester.Hobbies, candidate.Hobbies),
		Rating:     ratingScore,
	}

	return ScoredCandidate{
		UserProfile: candidate,
		TotalScore:  ranking.Round(ranking.CompositeScore(params, r.config.Weights), 2),
		Breakdown: Breakdown{
			Location:      params.Location,
			Preference:    params.Preference,
			Rating:        params.Rating,
			AverageRating: average,
		},
	}
}

func (r *Recommender) observe(start time.Time, err error) {
	if r.config.Metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "cancelled"
	}
	r.config.Metrics.IncRequests(outcome)
	r.config.Metrics.ObserveDuration(time.Since(start).Seconds())
}
