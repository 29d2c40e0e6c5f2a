package match

import (
	"context"
	"fmt"

	"github.com/onnwee/skillmatch/internal/profile"
)

// DefaultPoolLimit caps the number of candidates considered per request.
const DefaultPoolLimit = 50

// PoolBuilder assembles the candidate pool for a requester.
type PoolBuilder struct {
	users        profile.UserStore
	interactions profile.InteractionStore
	limit        int
}

// NewPoolBuilder creates a PoolBuilder. interactions may be nil, in which case
// nobody is excluded. A non-positive limit uses DefaultPoolLimit.
func NewPoolBuilder(users profile.UserStore, interactions profile.InteractionStore, limit int) *PoolBuilder {
	if limit <= 0 {
		limit = DefaultPoolLimit
	}
	return &PoolBuilder{users: users, interactions: interactions, limit: limit}
}

// BuildPool loads the requester and up to limit other users, skipping the
// requester, anyone the requester already swiped on or matched with, and
// duplicate ids. Returns profile.ErrUserNotFound for an unknown requester.
func (b *PoolBuilder) BuildPool(ctx context.Context, requesterID string) (profile.UserProfile, []profile.UserProfile, error) {
	requester, err := b.users.GetByID(ctx, requesterID)
	if err != nil {
		return profile.UserProfile{}, nil, err
	}

	excluded := map[string]struct{}{}
	if b.interactions != nil {
		excluded, err = b.interactions.ExcludedFor(ctx, requesterID)
		if err != nil {
			return profile.UserProfile{}, nil, fmt.Errorf("failed to load interactions: %w", err)
		}
	}

	// Over-fetch so exclusions don't shrink the pool below the limit.
	users, err := b.users.List(ctx, b.limit+len(excluded)+1)
	if err != nil {
		return profile.UserProfile{}, nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	seen := make(map[string]struct{}, len(users))
	pool := make([]profile.UserProfile, 0, b.limit)
	for _, u := range users {
		if len(pool) == b.limit {
			break
		}
		if u.ID == requesterID {
			continue
		}
		if _, ok := excluded[u.ID]; ok {
			continue
		}
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		pool = append(pool, u)
	}

	return *requester, pool, nil
}
