package profile

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore implements UserStore, RatingStore and InteractionStore.
// Thread-safe via RWMutex. Reads return copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	users    map[string]UserProfile
	ratings  map[string][]Rating            // reviewed user id -> ratings
	excluded map[string]map[string]struct{} // user id -> swiped or matched ids

	onUsersChanged func()
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:    make(map[string]UserProfile),
		ratings:  make(map[string][]Rating),
		excluded: make(map[string]map[string]struct{}),
	}
}

// OnUsersChanged registers fn to be called after every user write.
// Used to invalidate aggregates derived from the user set.
func (s *InMemoryStore) OnUsersChanged(fn func()) {
	s.mu.Lock()
	s.onUsersChanged = fn
	s.mu.Unlock()
}

// PutUser inserts or replaces a user profile.
func (s *InMemoryStore) PutUser(u UserProfile) error {
	if u.ID == "" {
		return ErrInvalidUserID
	}

	s.mu.Lock()
	s.users[u.ID] = u.Clone()
	hook := s.onUsersChanged
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// DeleteUser removes a user profile. Missing ids are ignored.
func (s *InMemoryStore) DeleteUser(id string) {
	s.mu.Lock()
	delete(s.users, id)
	hook := s.onUsersChanged
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// AddRating records a peer rating.
func (s *InMemoryStore) AddRating(r Rating) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[r.ReviewedUserID] = append(s.ratings[r.ReviewedUserID], r)
	return nil
}

// AddSwipe records that from has liked or passed on to.
func (s *InMemoryStore) AddSwipe(from, to string) {
	s.addExcluded(from, to)
}

// AddMatch records a mutual match; both sides exclude each other.
func (s *InMemoryStore) AddMatch(a, b string) {
	s.addExcluded(a, b)
	s.addExcluded(b, a)
}

func (s *InMemoryStore) addExcluded(userID, otherID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.excluded[userID]
	if !ok {
		set = make(map[string]struct{})
		s.excluded[userID] = set
	}
	set[otherID] = struct{}{}
}

// GetByID returns the profile for id.
func (s *InMemoryStore) GetByID(_ context.Context, id string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := u.Clone()
	return &clone, nil
}

// List returns up to limit profiles ordered by id.
func (s *InMemoryStore) List(_ context.Context, limit int) ([]UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	result := make([]UserProfile, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.users[id].Clone())
	}
	return result, nil
}

// CountDistinctHobbies returns the number of distinct hobbies across all users.
func (s *InMemoryStore) CountDistinctHobbies(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, u := range s.users {
		for _, h := range u.Hobbies {
			seen[h] = struct{}{}
		}
	}
	return len(seen), nil
}

// ListByReviewedUsers returns ratings grouped by reviewed user id.
func (s *InMemoryStore) ListByReviewedUsers(_ context.Context, userIDs []string) (map[string][]Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]Rating, len(userIDs))
	for _, id := range userIDs {
		ratings := s.ratings[id]
		if len(ratings) == 0 {
			continue
		}
		// Return a copy to avoid external modification
		cp := make([]Rating, len(ratings))
		copy(cp, ratings)
		result[id] = cp
	}
	return result, nil
}

// ExcludedFor returns the ids userID has swiped on or matched with.
func (s *InMemoryStore) ExcludedFor(_ context.Context, userID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]struct{}, len(s.excluded[userID]))
	for id := range s.excluded[userID] {
		result[id] = struct{}{}
	}
	return result, nil
}
