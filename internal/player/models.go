package player

import (
	"strings"
	"time"
)

type PlayerRole string

const (
	PlayerRoleUser  PlayerRole = "user"
	PlayerRoleAdmin PlayerRole = "admin"
)

// Player is a commander account. Email never leaves the server except on
// the player's own profile.
type Player struct {
	ID          int        `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url"`
	Role        PlayerRole `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PublicPlayer is the roster entry other players see.
type PublicPlayer struct {
	ID          int        `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url"`
	Role        PlayerRole `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`
}

func (p Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        p.Role,
		JoinedAt:    p.CreatedAt,
	}
}

func (r PlayerRole) String() string {
	return string(r)
}

// ParsePlayerRole maps unknown roles to PlayerRoleUser.
func ParsePlayerRole(s string) PlayerRole {
	if PlayerRole(strings.ToLower(strings.TrimSpace(s))) == PlayerRoleAdmin {
		return PlayerRoleAdmin
	}
	return PlayerRoleUser
}
