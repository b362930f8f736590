// Package credits implements the credit ledger: the per-user entitlement
// balance consumed by actionable predictions.
package credits

import (
	"context"

	"github.com/dyncarl8-oss/signalix-ai/internal/database"
)

// Ledger is the credit ledger contract consumed by the prediction pipeline
// and the REST surface. Decrement must be atomic with respect to itself under
// concurrent invocation for the same user.
type Ledger interface {
	GetCredits(ctx context.Context, userID string) (*database.UserCredits, error)
	SetCredits(ctx context.Context, userID string, credits int) error
	Decrement(ctx context.Context, userID string) (bool, error)
	GrantUnlimited(ctx context.Context, userID string) error
	RevokeUnlimited(ctx context.Context, userID string) error
	UpsertProfile(ctx context.Context, userID, username, name string, avatarURL *string) error
}

// Store is the persistence layer behind the ledger, implemented by
// database.Repository.
type Store interface {
	GetCredits(ctx context.Context, userID string) (*database.UserCredits, error)
	SetCredits(ctx context.Context, userID string, credits int) error
	Decrement(ctx context.Context, userID string) (bool, error)
	GrantUnlimited(ctx context.Context, userID string) error
	RevokeUnlimited(ctx context.Context, userID string) error
	UpsertProfile(ctx context.Context, userID, username, name string, avatarURL *string) error
}
