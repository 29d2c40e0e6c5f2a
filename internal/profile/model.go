// Package profile provides the user, rating and interaction records read by
// the recommendation engine, together with in-memory and PostgreSQL stores.
package profile

import (
	"errors"
	"math"
)

// Common errors for profile operations.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidUserID = errors.New("invalid user id: must not be empty")
	ErrInvalidRating = errors.New("invalid rating: must be between 0 and 5")
)

// MaxRating is the top of the peer rating scale.
const MaxRating = 5.0

// UserProfile is a read-only snapshot of a user's matchmaking attributes.
// Teach, Learn and Hobbies have set semantics: duplicates are ignored and
// comparison is exact string equality.
type UserProfile struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name,omitempty"`
	Teach       []string `json:"teach"`
	Learn       []string `json:"learn"`
	Hobbies     []string `json:"hobbies"`
	District    string   `json:"district"`
	Province    string   `json:"province"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (u UserProfile) Clone() UserProfile {
	u.Teach = cloneStrings(u.Teach)
	u.Learn = cloneStrings(u.Learn)
	u.Hobbies = cloneStrings(u.Hobbies)
	return u
}

// Rating is one peer review left after a completed exchange.
type Rating struct {
	ReviewerID     string  `json:"reviewer_id"`
	ReviewedUserID string  `json:"reviewed_user_id"`
	Rating         float64 `json:"rating"`
}

// Validate checks the rating value is within [0, MaxRating] and the reviewed
// user is set.
func (r *Rating) Validate() error {
	if r.ReviewedUserID == "" {
		return ErrInvalidUserID
	}
	if math.IsNaN(r.Rating) || r.Rating < 0 || r.Rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
