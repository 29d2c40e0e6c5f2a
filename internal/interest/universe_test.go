package interest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// countingCounter returns a scripted size and counts store queries.
type countingCounter struct {
	calls atomic.Int32
	size  atomic.Int32
	err   error
}

func (c *countingCounter) CountDistinctHobbies(context.Context) (int, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return int(c.size.Load()), nil
}

func newCounter(size int) *countingCounter {
	c := &countingCounter{}
	c.size.Store(int32(size))
	return c
}

func TestUniverse_ServesCachedUntilDirty(t *testing.T) {
	counter := newCounter(10)
	u := NewUniverse(counter)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		size, err := u.Size(ctx)
		if err != nil {
			t.Fatalf("Size() error = %v", err)
		}
		if size != 10 {
			t.Errorf("Size() = %d, want 10", size)
		}
	}
	if got := counter.calls.Load(); got != 1 {
		t.Errorf("expected 1 store query, got %d", got)
	}

	counter.size.Store(12)
	u.MarkDirty()
	if !u.NeedsRefresh() {
		t.Error("universe should need refresh after MarkDirty")
	}

	size, _ := u.Size(ctx)
	if size != 12 {
		t.Errorf("Size() after dirty = %d, want 12", size)
	}
	if got := counter.calls.Load(); got != 2 {
		t.Errorf("expected 2 store queries, got %d", got)
	}
	if u.NeedsRefresh() {
		t.Error("universe should be clean after refresh")
	}
}

func TestUniverse_UnavailableWhenNeverLoaded(t *testing.T) {
	u := NewUniverse(&countingCounter{err: errors.New("db down")})

	_, err := u.Size(context.Background())
	if !errors.Is(err, ErrUniverseUnavailable) {
		t.Errorf("expected ErrUniverseUnavailable, got %v", err)
	}
}

func TestUniverse_ServesStaleOnRefreshFailure(t *testing.T) {
	counter := newCounter(7)
	u := NewUniverse(counter)
	ctx := context.Background()

	if _, err := u.Size(ctx); err != nil {
		t.Fatalf("Size() error = %v", err)
	}

	counter.err = errors.New("db down")
	u.MarkDirty()

	size, err := u.Size(ctx)
	if err != nil {
		t.Fatalf("expected stale value without error, got %v", err)
	}
	if size != 7 {
		t.Errorf("Size() = %d, want stale 7", size)
	}
	if !u.NeedsRefresh() {
		t.Error("failed refresh should leave the universe dirty")
	}
}

// markingCounter marks the universe dirty while the count is in flight.
type markingCounter struct {
	u *Universe
}

func (m *markingCounter) CountDistinctHobbies(context.Context) (int, error) {
	m.u.MarkDirty()
	return 3, nil
}

func TestUniverse_WriteDuringRefreshKeepsDirty(t *testing.T) {
	mc := &markingCounter{}
	u := NewUniverse(mc)
	mc.u = u

	if _, err := u.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !u.NeedsRefresh() {
		t.Error("a write during refresh should keep the universe dirty")
	}
}

func TestUniverse_MaxAgeExpiresWithoutMarkDirty(t *testing.T) {
	counter := newCounter(10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := NewUniverse(counter, WithMaxAge(time.Minute))
	u.now = func() time.Time { return now }
	ctx := context.Background()

	if size, _ := u.Size(ctx); size != 10 {
		t.Fatalf("Size() = %d, want 10", size)
	}

	counter.size.Store(500)
	now = now.Add(59 * time.Second)
	if u.NeedsRefresh() {
		t.Error("universe should be fresh before max age")
	}
	if size, _ := u.Size(ctx); size != 10 {
		t.Errorf("Size() before expiry = %d, want cached 10", size)
	}

	now = now.Add(time.Second)
	if !u.NeedsRefresh() {
		t.Fatal("universe should need refresh once max age has passed")
	}
	if size, _ := u.Size(ctx); size != 500 {
		t.Errorf("Size() after expiry = %d, want 500", size)
	}
	if got := counter.calls.Load(); got != 2 {
		t.Errorf("expected 2 store queries, got %d", got)
	}
}

func TestUniverse_NoMaxAgeNeverExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u := NewUniverse(newCounter(4))
	u.now = func() time.Time { return now }

	if _, err := u.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	now = now.Add(24 * time.Hour)
	if u.NeedsRefresh() {
		t.Error("without max age only MarkDirty should invalidate")
	}
}
