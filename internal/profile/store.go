package profile

import "context"

// UserStore reads user profiles.
type UserStore interface {
	// GetByID returns the profile for id, or ErrUserNotFound.
	GetByID(ctx context.Context, id string) (*UserProfile, error)

	// List returns up to limit profiles ordered by id. A non-positive limit
	// returns every profile.
	List(ctx context.Context, limit int) ([]UserProfile, error)

	// CountDistinctHobbies returns the number of distinct hobby strings
	// across all users.
	CountDistinctHobbies(ctx context.Context) (int, error)
}

// RatingStore reads peer ratings.
type RatingStore interface {
	// ListByReviewedUsers returns ratings grouped by reviewed user id.
	// Users without ratings are absent from the map.
	ListByReviewedUsers(ctx context.Context, userIDs []string) (map[string][]Rating, error)
}

// InteractionStore reads the users a requester has already acted on.
type InteractionStore interface {
	// ExcludedFor returns the ids the user has swiped on or matched with.
	ExcludedFor(ctx context.Context, userID string) (map[string]struct{}, error)
}
