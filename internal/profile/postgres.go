package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/onnwee/skillmatch/internal/tracing"
)

// PostgresStore implements UserStore, RatingStore and InteractionStore using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, display_name, teach, learn, hobbies, district, province`

// GetByID retrieves a user profile by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (_ *UserProfile, err error) {
	ctx, endSpan := tracing.StartQuerySpan(ctx, "users", "get_by_id")
	defer func() { endSpan(err) }()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns up to limit profiles ordered by id.
func (s *PostgresStore) List(ctx context.Context, limit int) (_ []UserProfile, err error) {
	ctx, endSpan := tracing.StartQuerySpan(ctx, "users", "list")
	defer func() { endSpan(err) }()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []UserProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountDistinctHobbies counts distinct hobbies across all users.
func (s *PostgresStore) CountDistinctHobbies(ctx context.Context) (_ int, err error) {
	ctx, endSpan := tracing.StartQuerySpan(ctx, "users", "count_distinct_hobbies")
	defer func() { endSpan(err) }()

	query := `SELECT COUNT(DISTINCT h) FROM users, unnest(hobbies) AS h`

	var count int
	if err = s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count hobbies: %w", err)
	}
	return count, nil
}

// ListByReviewedUsers returns ratings for the given users in one round trip.
func (s *PostgresStore) ListByReviewedUsers(ctx context.Context, userIDs []string) (_ map[string][]Rating, err error) {
	result := make(map[string][]Rating, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	ctx, endSpan := tracing.StartQuerySpan(ctx, "ratings", "list_by_reviewed_users")
	defer func() { endSpan(err) }()

	query := `
		SELECT reviewer_id, reviewed_user_id, rating
		FROM ratings
		WHERE reviewed_user_id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ReviewerID, &r.ReviewedUserID, &r.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		result[r.ReviewedUserID] = append(result[r.ReviewedUserID], r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}

	return result, nil
}

// ExcludedFor returns the ids userID has swiped on or matched with, in
// either direction of the match.
func (s *PostgresStore) ExcludedFor(ctx context.Context, userID string) (_ map[string]struct{}, err error) {
	ctx, endSpan := tracing.StartQuerySpan(ctx, "swipes", "excluded_for")
	defer func() { endSpan(err) }()

	query := `
		SELECT to_user_id FROM swipes WHERE from_user_id = $1
		UNION
		SELECT matched_user_id FROM matches WHERE user_id = $1
		UNION
		SELECT user_id FROM matches WHERE matched_user_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	excluded := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		excluded[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return excluded, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserProfile, error) {
	u := &UserProfile{}
	err := row.Scan(
		&u.ID,
		&u.DisplayName,
		pq.Array(&u.Teach),
		pq.Array(&u.Learn),
		pq.Array(&u.Hobbies),
		&u.District,
		&u.Province,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
