package player

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"planets-engine/internal/shared/config"
	"planets-engine/internal/shared/errors"
)

const maxUsernameLen = 32

// Store is the persistence the player service needs.
type Store interface {
	GetPlayerCount(ctx context.Context) (int, error)
	GetAllPlayers(ctx context.Context) ([]Player, error)
	GetPlayerByID(ctx context.Context, id int) (*Player, error)
	FindPlayerByEmail(ctx context.Context, email string) (*Player, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	CreatePlayer(ctx context.Context, username, email, displayName string, avatarURL *string, role PlayerRole) (*Player, error)
	UpdatePlayerRole(ctx context.Context, id int, role PlayerRole) error
}

type Service struct {
	repo   Store
	logger *slog.Logger
}

func NewService(repo Store, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetPlayerCount(ctx context.Context) (int, error) {
	return s.repo.GetPlayerCount(ctx)
}

func (s *Service) GetAllPlayers(ctx context.Context) ([]Player, error) {
	return s.repo.GetAllPlayers(ctx)
}

func (s *Service) GetPlayerByID(ctx context.Context, id int) (*Player, error) {
	return s.repo.GetPlayerByID(ctx, id)
}

// FindOrCreatePlayerByOAuth returns the player owning email, creating it
// when missing. The configured admin email is always promoted to admin.
func (s *Service) FindOrCreatePlayerByOAuth(ctx context.Context, provider, providerUserID, email, displayName string, avatarURL *string) (*Player, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	logger := s.logger.With("operation", "find_or_create_oauth", "provider", provider)

	cfg := config.GlobalConfig
	isAdminEmail := cfg != nil && cfg.Admin.Email != "" && strings.EqualFold(email, cfg.Admin.Email)

	player, err := s.repo.FindPlayerByEmail(ctx, email)
	if err != nil && errors.GetType(err) != errors.ErrorTypeNotFound {
		return nil, err
	}

	if player != nil {
		if isAdminEmail && player.Role != PlayerRoleAdmin {
			if err := s.repo.UpdatePlayerRole(ctx, player.ID, PlayerRoleAdmin); err != nil {
				return nil, fmt.Errorf("failed to upgrade to admin: %w", err)
			}
			player.Role = PlayerRoleAdmin
			logger.Info("Player promoted to admin", "player_id", player.ID)
		}
		return player, nil
	}

	base := usernameFromEmail(email)
	role := PlayerRoleUser
	if isAdminEmail {
		base = cfg.Admin.Username
		displayName = cfg.Admin.DisplayName
		role = PlayerRoleAdmin
	}

	username, err := s.freeUsername(ctx, base)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}

	player, err = s.repo.CreatePlayer(ctx, username, email, displayName, avatarURL, role)
	if err != nil {
		return nil, err
	}

	logger.Info("Player registered",
		"player_id", player.ID,
		"username", player.Username,
		"role", player.Role,
		"provider_user_id", providerUserID)
	return player, nil
}

// freeUsername appends 2, 3, ... to base until the name is unused.
func (s *Service) freeUsername(ctx context.Context, base string) (string, error) {
	for n := 1; n < 1000; n++ {
		candidate := base
		if n > 1 {
			suffix := strconv.Itoa(n)
			candidate = truncate(base, maxUsernameLen-len(suffix)) + suffix
		}
		taken, err := s.repo.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.Conflictf("no free username for %q", base)
}

// usernameFromEmail keeps the lowercase letters, digits, '_' and '-' of the
// local part.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			return r
		}
		return -1
	}, local)
	if name == "" {
		return "player"
	}
	return truncate(name, maxUsernameLen)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
