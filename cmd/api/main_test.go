package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/onnwee/skillmatch/internal/auth"
	"github.com/onnwee/skillmatch/internal/config"
)

const testJWTSecret = "integration-secret-at-least-32-characters"

const testSeed = `{
  "users": [
    {"id": "u1", "display_name": "Ann", "teach": ["guitar"], "learn": ["french"], "hobbies": ["hiking", "chess"], "district": "Kathu", "province": "Phuket"},
    {"id": "u2", "display_name": "Ben", "teach": ["french"], "learn": ["guitar"], "hobbies": ["hiking"], "district": "Kathu", "province": "Phuket"},
    {"id": "u3", "display_name": "Cy", "teach": ["french"], "learn": ["cooking"], "hobbies": ["chess"], "district": "Bang Rak", "province": "Bangkok"},
    {"id": "u4", "display_name": "Di", "teach": ["pottery"], "learn": ["go"], "hobbies": [], "district": "Kathu", "province": "Phuket"}
  ],
  "ratings": [{"reviewer_id": "u3", "reviewed_user_id": "u2", "rating": 5}]
}`

// fakeGeocoder answers every lookup with the same coordinate.
func fakeGeocoder(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"OK","results":[{"geometry":{"location":{"lat":7.89,"lng":98.30}}}]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(testSeed), 0o600); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}
	return &config.Config{
		Port:                 8080,
		Env:                  "development",
		SeedFile:             seed,
		JWTSecret:            testJWTSecret,
		GeocoderBaseURL:      fakeGeocoder(t).URL,
		GeocoderTimeout:      2 * time.Second,
		GeocodeCacheSize:     64,
		GeocodeCacheTTL:      time.Hour,
		MaxDistanceKm:        config.DefaultMaxDistanceKm,
		PoolLimit:            50,
		ScoringConcurrency:   4,
		HobbyRefreshInterval: time.Minute,
		RateLimitRequests:    5,
		RateLimitWindow:      time.Minute,
	}
}

func startApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	if err := a.start(context.Background()); err != nil {
		t.Fatalf("start() error = %v", err)
	}
	t.Cleanup(a.stop)
	return a
}

func get(t *testing.T, h http.Handler, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		token, err := auth.NewJWTService(testJWTSecret).GenerateAccessToken(userID)
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_RecommendationsEndToEnd(t *testing.T) {
	a := startApp(t, testConfig(t))

	w := get(t, a.handler, "/recommendations", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var list struct {
		Recommendations []string `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	// u2 is the only two-way match, so the one-way candidate u3 is not used.
	if len(list.Recommendations) != 1 || list.Recommendations[0] != "u2" {
		t.Fatalf("recommendations = %v, want [u2]", list.Recommendations)
	}

	w = get(t, a.handler, "/recommendations/detailed", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var detailed struct {
		Recommendations []struct {
			UserID     string  `json:"user_id"`
			TotalScore float64 `json:"total_score"`
			Breakdown  struct {
				Location      float64 `json:"location"`
				Rating        float64 `json:"rating"`
				AverageRating float64 `json:"average_rating"`
			} `json:"breakdown"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detailed); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	got := detailed.Recommendations[0]
	if got.Breakdown.Location != 1 {
		t.Errorf("same coordinate should score location 1, got %v", got.Breakdown.Location)
	}
	if got.Breakdown.AverageRating != 5 || got.Breakdown.Rating != 1 {
		t.Errorf("rating breakdown = %+v, want average 5 and score 1", got.Breakdown)
	}
	if got.TotalScore <= 0 || got.TotalScore > 1 {
		t.Errorf("total score %v outside (0, 1]", got.TotalScore)
	}
}

func TestApp_UnknownUserIsNotFound(t *testing.T) {
	a := startApp(t, testConfig(t))

	if w := get(t, a.handler, "/recommendations", "ghost"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestApp_RequiresToken(t *testing.T) {
	a := startApp(t, testConfig(t))

	if w := get(t, a.handler, "/recommendations", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestApp_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	cfg.RateLimitRequests = 1
	a := startApp(t, cfg)

	if w := get(t, a.handler, "/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("expected ready with redis up, got %d: %s", w.Code, w.Body.String())
	}

	if w := get(t, a.handler, "/recommendations", "u1"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := get(t, a.handler, "/recommendations", "u1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected redis-backed limit to reject second request, got %d", w.Code)
	}
	if keys := mr.Keys(); len(keys) == 0 {
		t.Error("expected rate limit and geocode keys in redis")
	}

	mr.Close()
	if w := get(t, a.handler, "/ready", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with redis down, got %d", w.Code)
	}
}

func TestNewApp_BadSeedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected error for missing seed file")
	}
}
