package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Seed is a fixture of users and their history, used to populate an
// InMemoryStore for local development.
type Seed struct {
	Users   []UserProfile `json:"users"`
	Ratings []Rating      `json:"ratings"`
	Swipes  []struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"swipes"`
	Matches []struct {
		UserID        string `json:"user_id"`
		MatchedUserID string `json:"matched_user_id"`
	} `json:"matches"`
}

// LoadSeedFile reads a JSON seed from path and applies it to store.
func LoadSeedFile(path string, store *InMemoryStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}
	return seed.Apply(store)
}

// Apply writes the seed into store. It stops at the first invalid record.
func (s *Seed) Apply(store *InMemoryStore) error {
	for i, u := range s.Users {
		if err := store.PutUser(u); err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	for i, r := range s.Ratings {
		if err := store.AddRating(r); err != nil {
			return fmt.Errorf("ratings[%d]: %w", i, err)
		}
	}
	for i, sw := range s.Swipes {
		if sw.From == "" || sw.To == "" {
			return fmt.Errorf("swipes[%d]: %w", i, ErrInvalidUserID)
		}
		store.AddSwipe(sw.From, sw.To)
	}
	for i, m := range s.Matches {
		if m.UserID == "" || m.MatchedUserID == "" {
			return fmt.Errorf("matches[%d]: %w", i, ErrInvalidUserID)
		}
		store.AddMatch(m.UserID, m.MatchedUserID)
	}
	return nil
}
