package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines a fixed window limit. Both fields must be > 0.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Validate checks that the RateLimitConfig has valid values.
func (c RateLimitConfig) Validate() error {
	if c.RequestsPerWindow <= 0 {
		return fmt.Errorf("RequestsPerWindow must be > 0 (got %d)", c.RequestsPerWindow)
	}
	if c.WindowDuration <= 0 {
		return fmt.Errorf("WindowDuration must be > 0 (got %s)", c.WindowDuration)
	}
	return nil
}

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is the number of whole seconds until the window resets.
	RetryAfter int
}

// RateLimitStore holds per-key window counters.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (Decision, error)
}

// bucket represents a rate limit bucket for a single key.
type bucket struct {
	count     int
	windowEnd time.Time
}

// InMemoryRateLimitStore implements RateLimitStore with a fixed window
// counter per key. Limits are per process.
type InMemoryRateLimitStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewInMemoryRateLimitStore creates a new in-memory rate limit store.
func NewInMemoryRateLimitStore() *InMemoryRateLimitStore {
	return &InMemoryRateLimitStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow implements RateLimitStore. It never returns an error.
func (s *InMemoryRateLimitStore) Allow(_ context.Context, key string, config RateLimitConfig) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, exists := s.buckets[key]
	if !exists || !now.Before(b.windowEnd) {
		s.buckets[key] = &bucket{count: 1, windowEnd: now.Add(config.WindowDuration)}
		return Decision{Allowed: true, Remaining: config.RequestsPerWindow - 1}, nil
	}

	if b.count < config.RequestsPerWindow {
		b.count++
		return Decision{Allowed: true, Remaining: config.RequestsPerWindow - b.count}, nil
	}
	return Decision{RetryAfter: ceilSeconds(b.windowEnd.Sub(now))}, nil
}

// Cleanup removes expired buckets. Call it periodically, at a few multiples
// of the longest window.
func (s *InMemoryRateLimitStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, b := range s.buckets {
		if !now.Before(b.windowEnd) {
			delete(s.buckets, key)
		}
	}
}

// Len returns the number of live buckets.
func (s *InMemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// DefaultRateLimitKeyPrefix namespaces rate limit counters in Redis.
const DefaultRateLimitKeyPrefix = "ratelimit:"

// RedisRateLimitStore implements RateLimitStore with a fixed window counter
// in Redis (INCR plus expiry), so limits hold across API replicas.
type RedisRateLimitStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisRateLimitStore creates a Redis-backed store.
func NewRedisRateLimitStore(client redis.Cmdable) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: DefaultRateLimitKeyPrefix}
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (Decision, error) {
	k := s.prefix + key

	var incr *redis.IntCmd
	var pttl *redis.DurationCmd
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr %s: %w", key, err)
	}

	count := int(incr.Val())
	ttl := pttl.Val()
	// A counter without expiry is either new or left behind by a failed
	// expire; both start a fresh window counting only this request.
	if ttl < 0 {
		if err := s.client.Set(ctx, k, 1, config.WindowDuration).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit reset %s: %w", key, err)
		}
		count = 1
		ttl = config.WindowDuration
	}

	if count <= config.RequestsPerWindow {
		return Decision{Allowed: true, Remaining: config.RequestsPerWindow - count}, nil
	}
	return Decision{RetryAfter: ceilSeconds(ttl)}, nil
}

func ceilSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// KeyFunc extracts a rate limit key from an HTTP request.
type KeyFunc func(r *http.Request) string

// IPKeyFunc returns a KeyFunc that uses the client's IP address.
func IPKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
}

// UserKeyFunc returns a KeyFunc that uses the authenticated user id if
// available, falling back to IP address.
func UserKeyFunc() KeyFunc {
	ipFunc := IPKeyFunc()
	return func(r *http.Request) string {
		if id := GetUserID(r.Context()); id != "" {
			return "user:" + id
		}
		return "ip:" + ipFunc(r)
	}
}

func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "custom"
}

// RateLimiter rejects requests over the limit with 429 and the
// rate_limit_exceeded error envelope. When the store fails the request is
// let through and the failure is logged and counted. metrics and logger
// may be nil.
func RateLimiter(store RateLimitStore, config RateLimitConfig, keyFunc KeyFunc, metrics *Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			route := normalizePath(r.URL.Path)
			kt := keyType(key)
			if metrics != nil {
				metrics.IncRateLimitRequests(route, kt)
			}

			d, err := store.Allow(r.Context(), key, config)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limit store unavailable, allowing request",
					"route", route, "error", err)
				if metrics != nil {
					metrics.IncRateLimitStoreErrors()
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				if metrics != nil {
					metrics.IncRateLimitBlocked(route, kt)
				}
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
				resetTime := time.Now().Add(time.Duration(d.RetryAfter) * time.Second).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))
				writeError(w, r.Context(), http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
