package profile

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryStore_GetByID(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.PutUser(UserProfile{ID: "u1", Teach: []string{"go"}}); err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}

	u, err := store.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	// Mutating the returned copy must not affect the store
	u.Teach[0] = "rust"
	again, _ := store.GetByID(context.Background(), "u1")
	if again.Teach[0] != "go" {
		t.Errorf("store data was mutated through returned copy: %v", again.Teach)
	}

	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInMemoryStore_PutUserRejectsEmptyID(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.PutUser(UserProfile{}); !errors.Is(err, ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestInMemoryStore_List(t *testing.T) {
	store := NewInMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		_ = store.PutUser(UserProfile{ID: id})
	}

	all, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("expected users ordered by id, got %+v", all)
	}

	limited, _ := store.List(context.Background(), 2)
	if len(limited) != 2 {
		t.Errorf("expected 2 users, got %d", len(limited))
	}
}

func TestInMemoryStore_CountDistinctHobbies(t *testing.T) {
	store := NewInMemoryStore()
	_ = store.PutUser(UserProfile{ID: "u1", Hobbies: []string{"chess", "hiking"}})
	_ = store.PutUser(UserProfile{ID: "u2", Hobbies: []string{"hiking", "cooking"}})

	count, err := store.CountDistinctHobbies(context.Background())
	if err != nil {
		t.Fatalf("CountDistinctHobbies() error = %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 distinct hobbies, got %d", count)
	}
}

func TestInMemoryStore_OnUsersChanged(t *testing.T) {
	store := NewInMemoryStore()
	calls := 0
	store.OnUsersChanged(func() { calls++ })

	_ = store.PutUser(UserProfile{ID: "u1"})
	store.DeleteUser("u1")

	if calls != 2 {
		t.Errorf("expected hook called twice, got %d", calls)
	}
}

func TestInMemoryStore_Ratings(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.AddRating(Rating{ReviewerID: "a", ReviewedUserID: "u1", Rating: 4}); err != nil {
		t.Fatalf("AddRating() error = %v", err)
	}
	_ = store.AddRating(Rating{ReviewerID: "b", ReviewedUserID: "u1", Rating: 5})

	if err := store.AddRating(Rating{ReviewedUserID: "u1", Rating: 6}); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}

	got, err := store.ListByReviewedUsers(context.Background(), []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("ListByReviewedUsers() error = %v", err)
	}
	if len(got["u1"]) != 2 {
		t.Errorf("expected 2 ratings for u1, got %d", len(got["u1"]))
	}
	if _, ok := got["u2"]; ok {
		t.Error("users without ratings should be absent")
	}
}

func TestInMemoryStore_ExcludedFor(t *testing.T) {
	store := NewInMemoryStore()
	store.AddSwipe("u1", "u2")
	store.AddMatch("u3", "u1")

	excluded, err := store.ExcludedFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ExcludedFor() error = %v", err)
	}
	for _, id := range []string{"u2", "u3"} {
		if _, ok := excluded[id]; !ok {
			t.Errorf("expected %s to be excluded", id)
		}
	}

	// Swipes are one-directional
	other, _ := store.ExcludedFor(context.Background(), "u2")
	if _, ok := other["u1"]; ok {
		t.Error("swipe should not exclude in reverse")
	}
}

func TestRating_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rating  Rating
		wantErr error
	}{
		{"valid", Rating{ReviewedUserID: "u1", Rating: 3.5}, nil},
		{"zero allowed", Rating{ReviewedUserID: "u1", Rating: 0}, nil},
		{"max allowed", Rating{ReviewedUserID: "u1", Rating: 5}, nil},
		{"too high", Rating{ReviewedUserID: "u1", Rating: 5.1}, ErrInvalidRating},
		{"negative", Rating{ReviewedUserID: "u1", Rating: -1}, ErrInvalidRating},
		{"missing user", Rating{Rating: 3}, ErrInvalidUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rating.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
