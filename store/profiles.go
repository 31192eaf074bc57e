package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shipfast/livesync/todo"
)

// EnsureProfile creates the user_profiles row for the principal if it
// does not exist yet. Mirrors the lazy profile creation the mutation
// path performs before the first write.
func (s *Store) EnsureProfile(ctx context.Context, principal todo.Principal, fullName string) error {
	now := encodeTime(s.timestamp())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, email, full_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		principal.ID, principal.Email, fullName, now, now,
	)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile for the given principal id, or
// (nil, nil) when none exists.
func (s *Store) GetProfile(ctx context.Context, id string) (*todo.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, full_name, created_at, updated_at FROM user_profiles WHERE id = ?",
		id,
	)

	var (
		profile   todo.Profile
		createdAt string
		updatedAt string
	)
	err := row.Scan(&profile.ID, &profile.Email, &profile.FullName, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if profile.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &profile, nil
}
