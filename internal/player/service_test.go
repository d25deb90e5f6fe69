package player

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"planets-engine/internal/shared/config"
	"planets-engine/internal/shared/errors"
)

type memoryStore struct {
	players []Player
}

func (m *memoryStore) GetPlayerCount(ctx context.Context) (int, error) { return len(m.players), nil }

func (m *memoryStore) GetAllPlayers(ctx context.Context) ([]Player, error) { return m.players, nil }

func (m *memoryStore) GetPlayerByID(ctx context.Context, id int) (*Player, error) {
	for i := range m.players {
		if m.players[i].ID == id {
			p := m.players[i]
			return &p, nil
		}
	}
	return nil, errors.NotFoundf("player not found with id: %d", id)
}

func (m *memoryStore) FindPlayerByEmail(ctx context.Context, email string) (*Player, error) {
	for i := range m.players {
		if strings.EqualFold(m.players[i].Email, email) {
			p := m.players[i]
			return &p, nil
		}
	}
	return nil, errors.NotFoundf("player not found with email: %s", email)
}

func (m *memoryStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	for _, p := range m.players {
		if p.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CreatePlayer(ctx context.Context, username, email, displayName string, avatarURL *string, role PlayerRole) (*Player, error) {
	p := Player{
		ID:          len(m.players) + 1,
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Role:        role,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.players = append(m.players, p)
	return &p, nil
}

func (m *memoryStore) UpdatePlayerRole(ctx context.Context, id int, role PlayerRole) error {
	for i := range m.players {
		if m.players[i].ID == id {
			m.players[i].Role = role
			return nil
		}
	}
	return errors.NotFoundf("player not found with id: %d", id)
}

func newTestService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	prev := config.GlobalConfig
	config.GlobalConfig = &config.Config{Admin: config.AdminConfig{
		Email:       "boss@example.com",
		Username:    "admin",
		DisplayName: "Admin",
	}}
	t.Cleanup(func() { config.GlobalConfig = prev })

	store := &memoryStore{}
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestFindOrCreateCreatesOnce(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	p, err := s.FindOrCreatePlayerByOAuth(ctx, "github", "42", "pilot@example.com", "", nil)
	if err != nil {
		t.Fatalf("FindOrCreatePlayerByOAuth: %v", err)
	}
	if p.Username != "pilot" || p.DisplayName != "pilot" || p.Role != PlayerRoleUser {
		t.Fatalf("player = %+v", p)
	}

	again, err := s.FindOrCreatePlayerByOAuth(ctx, "google", "g-1", "pilot@example.com", "Pilot", nil)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if again.ID != p.ID || len(store.players) != 1 {
		t.Fatalf("second call created a new player: %+v", store.players)
	}
}

func TestAdminEmailIsPromoted(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	p, err := s.FindOrCreatePlayerByOAuth(ctx, "github", "1", "boss@example.com", "Someone", nil)
	if err != nil {
		t.Fatalf("FindOrCreatePlayerByOAuth: %v", err)
	}
	if p.Role != PlayerRoleAdmin || p.Username != "admin" {
		t.Fatalf("player = %+v", p)
	}

	store.players[0].Role = PlayerRoleUser
	p, _ = s.FindOrCreatePlayerByOAuth(ctx, "github", "1", "boss@example.com", "", nil)
	if p.Role != PlayerRoleAdmin || store.players[0].Role != PlayerRoleAdmin {
		t.Fatalf("existing admin email not promoted: %+v", p)
	}
}

func TestParsePlayerRole(t *testing.T) {
	if ParsePlayerRole("admin") != PlayerRoleAdmin || ParsePlayerRole("???") != PlayerRoleUser {
		t.Fatal("unexpected role parsing")
	}
}

func TestUsernamesStayUnique(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	a, err := s.FindOrCreatePlayerByOAuth(ctx, "github", "1", "Nova@one.example", "", nil)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := s.FindOrCreatePlayerByOAuth(ctx, "google", "2", "nova@two.example", "", nil)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.Username != "nova" || b.Username != "nova2" {
		t.Fatalf("usernames = %q, %q", a.Username, b.Username)
	}
	if a.Email != "nova@one.example" {
		t.Fatalf("email not normalized: %q", a.Email)
	}
}

func TestUsernameFromEmail(t *testing.T) {
	tests := map[string]string{
		"Ada.Lovelace+games@example.com": "adalovelacegames",
		"@example.com":                   "player",
		"...@example.com":                "player",
		"x_y-z@example.com":              "x_y-z",
	}
	for in, want := range tests {
		if got := usernameFromEmail(in); got != want {
			t.Fatalf("usernameFromEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
