// Package interest scores shared hobbies between two users against the
// size of the hobby universe, the number of distinct hobbies on the platform.
package interest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUniverseUnavailable is returned when the hobby universe has never been
// loaded and the store can't be reached.
var ErrUniverseUnavailable = errors.New("hobby universe unavailable")

// Counter computes the hobby universe size from the data store.
type Counter interface {
	CountDistinctHobbies(ctx context.Context) (int, error)
}

// Universe caches the hobby universe size. The cached value is served until
// MarkDirty is called or, with WithMaxAge, until it is older than the max
// age. After that the next Size call or refresh cycle recomputes it.
// Thread-safe.
type Universe struct {
	counter Counter
	group   singleflight.Group
	maxAge  time.Duration
	now     func() time.Time

	mu          sync.RWMutex
	size        int
	loaded      bool
	dirty       bool
	generation  uint64 // bumped by MarkDirty
	refreshedAt time.Time
}

// UniverseOption configures a Universe.
type UniverseOption func(*Universe)

// WithMaxAge expires the cached size d after it was computed. Use it when
// writes to the user set bypass MarkDirty, as with the PostgreSQL store.
// Zero disables expiry.
func WithMaxAge(d time.Duration) UniverseOption {
	return func(u *Universe) { u.maxAge = d }
}

// NewUniverse creates an empty universe cache backed by counter.
func NewUniverse(counter Counter, opts ...UniverseOption) *Universe {
	u := &Universe{counter: counter, now: time.Now}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// MarkDirty flags the cached size as stale. Call after user hobby writes.
func (u *Universe) MarkDirty() {
	u.mu.Lock()
	u.dirty = true
	u.generation++
	u.mu.Unlock()
}

// NeedsRefresh reports whether the cache is empty, marked dirty or expired.
func (u *Universe) NeedsRefresh() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.staleLocked()
}

func (u *Universe) staleLocked() bool {
	if !u.loaded || u.dirty {
		return true
	}
	return u.maxAge > 0 && u.now().Sub(u.refreshedAt) >= u.maxAge
}

// Size returns the hobby universe size, refreshing it when needed.
// If a refresh fails but an earlier value exists, the stale value is served.
func (u *Universe) Size(ctx context.Context) (int, error) {
	u.mu.RLock()
	size, fresh := u.size, !u.staleLocked()
	u.mu.RUnlock()
	if fresh {
		return size, nil
	}

	size, err := u.Refresh(ctx)
	if err != nil {
		u.mu.RLock()
		defer u.mu.RUnlock()
		if u.loaded {
			return u.size, nil
		}
		return 0, err
	}
	return size, nil
}

// Refresh recomputes the universe size from the store. Concurrent callers
// share one store query.
func (u *Universe) Refresh(ctx context.Context) (int, error) {
	v, err, _ := u.group.Do("universe", func() (any, error) {
		u.mu.RLock()
		gen := u.generation
		u.mu.RUnlock()

		count, err := u.counter.CountDistinctHobbies(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrUniverseUnavailable, err)
		}

		u.mu.Lock()
		u.size = count
		u.loaded = true
		u.refreshedAt = u.now()
		// A write that landed during the query keeps the cache dirty.
		if u.generation == gen {
			u.dirty = false
		}
		u.mu.Unlock()

		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
