package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/skillmatch/internal/api"
	"github.com/onnwee/skillmatch/internal/auth"
	"github.com/onnwee/skillmatch/internal/config"
	"github.com/onnwee/skillmatch/internal/db"
	"github.com/onnwee/skillmatch/internal/geocode"
	"github.com/onnwee/skillmatch/internal/health"
	"github.com/onnwee/skillmatch/internal/interest"
	"github.com/onnwee/skillmatch/internal/jobs"
	"github.com/onnwee/skillmatch/internal/match"
	"github.com/onnwee/skillmatch/internal/middleware"
	"github.com/onnwee/skillmatch/internal/profile"
	"github.com/onnwee/skillmatch/internal/ranking"
	"github.com/onnwee/skillmatch/internal/reputation"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 3 * time.Second

// stores groups the three read interfaces the engine needs. Both the
// PostgreSQL and the in-memory store implement all of them.
type stores interface {
	profile.UserStore
	profile.RatingStore
	profile.InteractionStore
}

// app holds the wired server and the resources that must be released on
// shutdown, in reverse order of acquisition.
type app struct {
	handler http.Handler
	logger  *slog.Logger

	universeJob *interest.RefreshJob
	background  []*jobs.Periodic
	closers     []func() error
}

// newApp builds every component from cfg. On error, resources acquired so
// far are released before returning.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpMetrics := middleware.NewMetrics()
	geocodeMetrics := geocode.NewMetrics()
	interestMetrics := interest.NewMetrics()
	reputationMetrics := reputation.NewMetrics()
	matchMetrics := match.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	for _, m := range []interface {
		Register(prometheus.Registerer) error
	}{httpMetrics, geocodeMetrics, interestMetrics, reputationMetrics, matchMetrics, jobMetrics} {
		if err := m.Register(registry); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	// Storage
	var (
		store     stores
		memStore  *profile.InMemoryStore
		dbChecker api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		var conn *sql.DB
		conn, err = db.Open(ctx, cfg.DatabaseURL, db.Options{})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		store = profile.NewPostgresStore(conn)
		dbChecker = health.NewDBChecker(conn)
		logger.Info("using postgres profile store")
	} else {
		memStore = profile.NewInMemoryStore()
		if cfg.SeedFile != "" {
			if err := profile.LoadSeedFile(cfg.SeedFile, memStore); err != nil {
				return nil, err
			}
			logger.Info("loaded seed file", "path", cfg.SeedFile)
		}
		store = memStore
		logger.Warn("DATABASE_URL not set, using in-memory profile store")
	}

	var (
		redisClient  *redis.Client
		redisChecker api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		a.closers = append(a.closers, redisClient.Close)
		redisChecker = health.NewRedisChecker(redisClient)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		if err := redisChecker.HealthCheck(pingCtx); err != nil {
			// Both Redis consumers degrade gracefully, so start anyway.
			logger.Warn("redis unreachable at startup", "error", err)
		}
		cancel()
	}

	// Geocoding: bounded LRU, optional Redis tier, breaker-protected upstream.
	local, err := geocode.NewLRUCache(cfg.GeocodeCacheSize)
	if err != nil {
		return nil, err
	}
	upstream := geocode.NewHTTPClient(geocode.HTTPConfig{
		BaseURL:    cfg.GeocoderBaseURL,
		APIKey:     cfg.GeocoderAPIKey,
		HTTPClient: &http.Client{Timeout: cfg.GeocoderTimeout},
	}, logger)
	geocoderOpts := []geocode.Option{
		geocode.WithTimeout(cfg.GeocoderTimeout),
		geocode.WithMetrics(geocodeMetrics),
		geocode.WithLogger(logger),
	}
	if redisClient != nil {
		geocoderOpts = append(geocoderOpts, geocode.WithSharedCache(geocode.NewRedisCache(redisClient, cfg.GeocodeCacheTTL)))
	}
	geocoder := geocode.New(upstream, local, geocoderOpts...)

	// Hobby universe, recounted off the request path.
	var universe *interest.Universe
	if memStore != nil {
		universe = interest.NewUniverse(store)
		memStore.OnUsersChanged(universe.MarkDirty)
	} else {
		// Profile writes happen outside this service, so expire the count
		// on the refresh interval instead.
		universe = interest.NewUniverse(store, interest.WithMaxAge(cfg.HobbyRefreshInterval))
	}
	a.universeJob = interest.NewRefreshJob(interest.RefreshJobConfig{
		Interval:   cfg.HobbyRefreshInterval,
		Logger:     logger,
		Metrics:    interestMetrics,
		JobMetrics: jobMetrics,
	}, universe)

	weights, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		// LoadCalibration already fell back to the defaults.
		logger.Warn("using default ranking weights", "error", err)
	}

	recommender := match.NewRecommender(
		match.NewDistanceScorer(geocoder, cfg.MaxDistanceKm, logger),
		interest.NewScorer(universe, logger),
		reputation.NewScorer(store,
			reputation.WithMetrics(reputationMetrics),
			reputation.WithLogger(logger),
		),
		match.Config{
			Weights:     weights,
			Concurrency: cfg.ScoringConcurrency,
			Logger:      logger,
			Metrics:     matchMetrics,
		},
	)
	service := match.NewService(match.NewPoolBuilder(store, store, cfg.PoolLimit), recommender)

	// Rate limiting: shared counters in Redis, otherwise per-process.
	var limitStore middleware.RateLimitStore
	if redisClient != nil {
		limitStore = middleware.NewRedisRateLimitStore(redisClient)
	} else {
		memLimits := middleware.NewInMemoryRateLimitStore()
		limitStore = memLimits
		a.background = append(a.background, jobs.NewPeriodic(jobs.PeriodicConfig{
			JobType:  jobs.JobTypeRateLimitCleanup,
			Interval: 5 * cfg.RateLimitWindow,
			Logger:   logger,
			Metrics:  jobMetrics,
		}, func(context.Context) error {
			memLimits.Cleanup()
			return nil
		}))
	}

	a.handler = api.NewRouter(api.RouterConfig{
		Recommendations: api.NewRecommendationHandlers(service, logger),
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			DBChecker:      dbChecker,
			RedisChecker:   redisChecker,
			MetricsEnabled: true,
		}),
		Tokens:         auth.NewJWTService(cfg.JWTSecret, auth.WithPreviousSecret(cfg.JWTPreviousSecret)),
		RateLimitStore: limitStore,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimitRequests,
			WindowDuration:    cfg.RateLimitWindow,
		},
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Version:        version,
		Logger:         logger,
	})
	return a, nil
}

// start launches the background jobs.
func (a *app) start(ctx context.Context) error {
	if err := a.universeJob.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hobby universe refresh: %w", err)
	}
	for _, j := range a.background {
		j.Start()
	}
	return nil
}

// stop halts background jobs and releases resources.
func (a *app) stop() {
	if a.universeJob != nil {
		a.universeJob.Stop()
	}
	for _, j := range a.background {
		j.Stop()
	}
	a.close()
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("failed to release resources", "error", err)
	}
}
