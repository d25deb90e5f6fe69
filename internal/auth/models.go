package auth

import "time"

// Identity is an account at an external OAuth provider.
type Identity struct {
	Provider       string
	ProviderUserID string
	Email          string
}

// LinkedProvider is a provider account attached to a player, as shown on
// the player's own profile.
type LinkedProvider struct {
	Provider    string     `json:"provider"`
	Email       string     `json:"email"`
	LinkedAt    time.Time  `json:"linked_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
