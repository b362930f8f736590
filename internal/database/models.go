package database

import "time"

// UserCredits is a user's persistent credit balance. Balances are created
// lazily with DefaultCredits on first access and survive across sessions.
type UserCredits struct {
	UserID             string    `json:"user_id"`
	Credits            int       `json:"credits"`
	HasUnlimitedAccess bool      `json:"has_unlimited_access"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserProfile holds display information synced from the storefront.
type UserProfile struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCredits is the balance granted on first access.
const DefaultCredits = 10
