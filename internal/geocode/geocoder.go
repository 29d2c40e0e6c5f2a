package geocode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/onnwee/skillmatch/internal/geo"
)

// DefaultTimeout bounds a single upstream lookup.
const DefaultTimeout = 5 * time.Second

// Cache tier labels.
const (
	TierMemory = "memory"
	TierRedis  = "redis"
)

// Lookup resolves a free-form address against an upstream service.
type Lookup interface {
	Lookup(ctx context.Context, address string) (geo.Coordinate, error)
}

// Geocoder resolves (district, province) pairs through the LRU tier, the
// optional shared tier, then the upstream. Concurrent misses for the same
// key share one upstream call. Failures are never cached.
type Geocoder struct {
	upstream Lookup
	local    *LRUCache
	shared   SharedCache
	timeout  time.Duration
	metrics  *Metrics
	logger   *slog.Logger
	group    singleflight.Group
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithSharedCache enables the cross-instance cache tier.
func WithSharedCache(c SharedCache) Option {
	return func(g *Geocoder) { g.shared = c }
}

// WithTimeout sets the per-lookup upstream timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Geocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(g *Geocoder) { g.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Geocoder) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Geocoder. local must not be nil.
func New(upstream Lookup, local *LRUCache, opts ...Option) *Geocoder {
	g := &Geocoder{
		upstream: upstream,
		local:    local,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key builds the cache key and upstream address for a location.
func Key(district, province string) string {
	return district + "," + province
}

// Resolve returns the coordinate for (district, province).
// Any failure is reported as an error matching ErrGeocodingFailed, except
// cancellation of ctx itself which is returned as ctx.Err().
func (g *Geocoder) Resolve(ctx context.Context, district, province string) (geo.Coordinate, error) {
	key := Key(district, province)

	if coord, ok := g.local.Get(key); ok {
		g.observeHit(TierMemory)
		return coord, nil
	}

	ch := g.group.DoChan(key, func() (any, error) {
		// Detach from the first caller's cancellation so a departing caller
		// does not fail the lookup for everyone waiting on the same key.
		return g.resolveMiss(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return geo.Coordinate{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return geo.Coordinate{}, res.Err
		}
		return res.Val.(geo.Coordinate), nil
	}
}

func (g *Geocoder) resolveMiss(ctx context.Context, key string) (geo.Coordinate, error) {
	// Another flight may have filled the LRU while this one was queued.
	if coord, ok := g.local.Get(key); ok {
		g.observeHit(TierMemory)
		return coord, nil
	}

	if g.shared != nil {
		coord, ok, err := g.shared.Get(ctx, key)
		if err != nil {
			g.logger.Warn("shared geocode cache read failed", "key", key, "error", err)
		} else if ok {
			g.local.Add(key, coord)
			g.observeHit(TierRedis)
			return coord, nil
		}
	}

	if g.metrics != nil {
		g.metrics.IncCacheMiss()
	}

	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	coord, err := g.upstream.Lookup(lookupCtx, key)
	if g.metrics != nil {
		g.metrics.ObserveUpstreamDuration(time.Since(start).Seconds())
	}
	if err != nil {
		if !errors.Is(err, ErrGeocodingFailed) {
			reason := ReasonTransport
			if errors.Is(err, context.DeadlineExceeded) {
				reason = ReasonTimeout
			}
			err = &FailureError{Address: key, Reason: reason, Err: err}
		}
		if g.metrics != nil {
			g.metrics.IncUpstreamFailure(failureReason(err))
		}
		g.logger.Warn("geocoding failed", "key", key, "reason", failureReason(err), "error", err)
		return geo.Coordinate{}, err
	}

	g.local.Add(key, coord)
	if g.shared != nil {
		if err := g.shared.Set(ctx, key, coord); err != nil {
			g.logger.Warn("shared geocode cache write failed", "key", key, "error", err)
		}
	}

	// Only the cell is logged, never the raw coordinate.
	g.logger.Info("geocoded location",
		"key", key,
		"geohash", coord.Geohash(geo.DefaultPrecision))

	return coord, nil
}

func (g *Geocoder) observeHit(tier string) {
	if g.metrics != nil {
		g.metrics.IncCacheHit(tier)
	}
}
