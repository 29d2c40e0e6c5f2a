package reputation

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/onnwee/skillmatch/internal/profile"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// countingRatingStore wraps a RatingStore and counts queries.
type countingRatingStore struct {
	inner profile.RatingStore
	calls atomic.Int32
	err   error
}

func (c *countingRatingStore) ListByReviewedUsers(ctx context.Context, ids []string) (map[string][]profile.Rating, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.ListByReviewedUsers(ctx, ids)
}

func seededStore(t *testing.T) *profile.InMemoryStore {
	t.Helper()
	store := profile.NewInMemoryStore()
	ratings := []profile.Rating{
		{ReviewerID: "a", ReviewedUserID: "u1", Rating: 4},
		{ReviewerID: "b", ReviewedUserID: "u1", Rating: 5},
		{ReviewerID: "c", ReviewedUserID: "u2", Rating: 2},
	}
	for _, r := range ratings {
		if err := store.AddRating(r); err != nil {
			t.Fatalf("AddRating() error = %v", err)
		}
	}
	return store
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []profile.Rating
		want    float64
	}{
		{"none", nil, 0},
		{"single", []profile.Rating{{Rating: 3}}, 3},
		{"several", []profile.Rating{{Rating: 4}, {Rating: 5}, {Rating: 3}}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(tt.ratings); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Average() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer(seededStore(t), WithLogger(quietLogger()))
	ctx := context.Background()

	tests := []struct {
		userID    string
		wantScore float64
		wantAvg   float64
	}{
		{"u1", 0.9, 4.5},
		{"u2", 0.4, 2},
		{"unrated", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			score, avg := s.Score(ctx, tt.userID)
			if math.Abs(score-tt.wantScore) > 1e-9 || math.Abs(avg-tt.wantAvg) > 1e-9 {
				t.Errorf("Score() = (%v, %v), want (%v, %v)", score, avg, tt.wantScore, tt.wantAvg)
			}
		})
	}
}

func TestScorer_FetchFailureYieldsZero(t *testing.T) {
	store := &countingRatingStore{err: errors.New("db down")}
	m := NewMetrics()
	s := NewScorer(store, WithLogger(quietLogger()), WithMetrics(m))

	if got := s.AverageRating(context.Background(), "u1"); got != 0 {
		t.Errorf("AverageRating() = %v, want 0", got)
	}

	ctx := s.WithBatching(context.Background())
	if got := s.AverageRating(ctx, "u1"); got != 0 {
		t.Errorf("batched AverageRating() = %v, want 0", got)
	}
}

func TestScorer_WithBatchingCollapsesQueries(t *testing.T) {
	store := &countingRatingStore{inner: seededStore(t)}
	s := NewScorer(store, WithLogger(quietLogger()), WithBatchWait(20*time.Millisecond))
	ctx := s.WithBatching(context.Background())

	ids := []string{"u1", "u2", "unrated", "u1"}
	got := make([]float64, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			got[i] = s.AverageRating(ctx, id)
		}(i, id)
	}
	wg.Wait()

	want := []float64{4.5, 2, 0, 4.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("AverageRating(%s) = %v, want %v", ids[i], got[i], want[i])
		}
	}
	if calls := store.calls.Load(); calls != 1 {
		t.Errorf("expected 1 batched store query, got %d", calls)
	}
}

func TestScorer_WithoutBatchingQueriesPerCall(t *testing.T) {
	store := &countingRatingStore{inner: seededStore(t)}
	s := NewScorer(store, WithLogger(quietLogger()))

	s.AverageRating(context.Background(), "u1")
	s.AverageRating(context.Background(), "u2")

	if calls := store.calls.Load(); calls != 2 {
		t.Errorf("expected 2 store queries, got %d", calls)
	}
}
