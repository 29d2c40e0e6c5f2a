package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/onnwee/skillmatch/internal/match"
	"github.com/onnwee/skillmatch/internal/middleware"
	"github.com/onnwee/skillmatch/internal/profile"
)

// MaxRecommendationLimit caps the optional limit query parameter.
const MaxRecommendationLimit = 100

// Recommender ranks candidates for the authenticated user.
type Recommender interface {
	RecommendFor(ctx context.Context, requesterID string) ([]match.ScoredCandidate, error)
}

// RecommendationHandlers serves the recommendation endpoints. Both routes
// expect RequireAuth to have stored the requesting user id in the context.
type RecommendationHandlers struct {
	service Recommender
	logger  *slog.Logger
}

// NewRecommendationHandlers creates handlers backed by service.
func NewRecommendationHandlers(service Recommender, logger *slog.Logger) *RecommendationHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationHandlers{service: service, logger: logger}
}

// RecommendationsResponse is the body of GET /recommendations.
type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

// DetailedRecommendation is one ranked candidate with its score components.
type DetailedRecommendation struct {
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	TotalScore  float64         `json:"total_score"`
	Breakdown   match.Breakdown `json:"breakdown"`
}

// DetailedRecommendationsResponse is the body of GET /recommendations/detailed.
type DetailedRecommendationsResponse struct {
	Recommendations []DetailedRecommendation `json:"recommendations"`
}

// List handles GET /recommendations and returns ranked user ids.
func (h *RecommendationHandlers) List(w http.ResponseWriter, r *http.Request) {
	ranked, ok := h.recommend(w, r)
	if !ok {
		return
	}

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.ID
	}
	writeJSON(w, r.Context(), http.StatusOK, RecommendationsResponse{Recommendations: ids})
}

// Detailed handles GET /recommendations/detailed and returns ranked
// candidates with their score breakdown.
func (h *RecommendationHandlers) Detailed(w http.ResponseWriter, r *http.Request) {
	ranked, ok := h.recommend(w, r)
	if !ok {
		return
	}

	items := make([]DetailedRecommendation, len(ranked))
	for i, c := range ranked {
		items[i] = DetailedRecommendation{
			UserID:      c.ID,
			DisplayName: c.DisplayName,
			TotalScore:  c.TotalScore,
			Breakdown:   c.Breakdown,
		}
	}
	writeJSON(w, r.Context(), http.StatusOK, DetailedRecommendationsResponse{Recommendations: items})
}

// recommend runs the shared request handling. It writes the error response
// and returns false when the request cannot be served.
func (h *RecommendationHandlers) recommend(w http.ResponseWriter, r *http.Request) ([]match.ScoredCandidate, bool) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return nil, false
	}

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return nil, false
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return nil, false
	}

	ranked, err := h.service.RecommendFor(ctx, userID)
	switch {
	case errors.Is(err, profile.ErrUserNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "User not found")
		return nil, false
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		h.logger.DebugContext(ctx, "recommendation request cancelled", "user_id", userID)
		return nil, false
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to build recommendations", "user_id", userID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to build recommendations")
		return nil, false
	}

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, true
}

var errInvalidLimit = errors.New("limit must be an integer between 1 and " + strconv.Itoa(MaxRecommendationLimit))

// parseLimit returns 0 for an absent limit, meaning no truncation.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxRecommendationLimit {
		return 0, errInvalidLimit
	}
	return n, nil
}
