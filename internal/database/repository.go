package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repository provides access to credit and profile storage.
type Repository struct {
	db *DB
}

// NewRepository creates a repository backed by the given DB.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetCredits returns the user's balance, creating it with DefaultCredits on
// first access.
func (r *Repository) GetCredits(ctx context.Context, userID string) (*UserCredits, error) {
	insert := `
		INSERT INTO user_credits (user_id, credits, has_unlimited_access)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.Pool.Exec(ctx, insert, userID, DefaultCredits); err != nil {
		return nil, fmt.Errorf("failed to initialize credits: %w", err)
	}

	query := `
		SELECT user_id, credits, has_unlimited_access, created_at, updated_at
		FROM user_credits
		WHERE user_id = $1`

	var uc UserCredits
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&uc.UserID, &uc.Credits, &uc.HasUnlimitedAccess, &uc.CreatedAt, &uc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get credits: %w", err)
	}

	return &uc, nil
}

// SetCredits sets the user's balance to an absolute value.
func (r *Repository) SetCredits(ctx context.Context, userID string, credits int) error {
	query := `
		INSERT INTO user_credits (user_id, credits, has_unlimited_access)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET credits = EXCLUDED.credits, updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Pool.Exec(ctx, query, userID, credits); err != nil {
		return fmt.Errorf("failed to set credits: %w", err)
	}
	return nil
}

// Decrement atomically consumes one credit. It returns true when the user has
// unlimited access (no mutation) or a unit was removed from a positive
// balance, false when the balance was already zero. The conditional UPDATE is
// the single serialization point: two concurrent cycles for the same user
// cannot both succeed against the same last credit.
func (r *Repository) Decrement(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE user_credits
		SET credits = CASE WHEN has_unlimited_access THEN credits ELSE credits - 1 END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND (has_unlimited_access OR credits > 0)
		RETURNING credits`

	var remaining int
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to decrement credits: %w", err)
	}

	return true, nil
}

// GrantUnlimited flags the user for unlimited access.
func (r *Repository) GrantUnlimited(ctx context.Context, userID string) error {
	query := `
		INSERT INTO user_credits (user_id, credits, has_unlimited_access)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (user_id) DO UPDATE
		SET has_unlimited_access = TRUE, updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Pool.Exec(ctx, query, userID, DefaultCredits); err != nil {
		return fmt.Errorf("failed to grant unlimited access: %w", err)
	}
	return nil
}

// RevokeUnlimited clears the unlimited access flag. The remaining credit
// balance is left untouched.
func (r *Repository) RevokeUnlimited(ctx context.Context, userID string) error {
	query := `
		UPDATE user_credits
		SET has_unlimited_access = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke unlimited access: %w", err)
	}
	return nil
}

// UpsertProfile stores or refreshes the user's display profile.
func (r *Repository) UpsertProfile(ctx context.Context, userID, username, name string, avatarURL *string) error {
	query := `
		INSERT INTO user_profiles (user_id, username, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    name = EXCLUDED.name,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Pool.Exec(ctx, query, userID, username, name, avatarURL); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
