package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"planets-engine/internal/auth"
	"planets-engine/internal/auth/providers"
	"planets-engine/internal/player"
	"planets-engine/internal/shared/cookies"
	"planets-engine/internal/shared/errors"
	"planets-engine/internal/shared/response"
)

// PlayerResolver finds or creates the player behind an OAuth identity.
type PlayerResolver interface {
	GetPlayerByID(ctx context.Context, id int) (*player.Player, error)
	FindOrCreatePlayerByOAuth(ctx context.Context, provider, providerUserID, email, displayName string, avatarURL *string) (*player.Player, error)
}

// IdentityLinker records which provider account belongs to which player.
type IdentityLinker interface {
	LinkedPlayer(ctx context.Context, provider, providerUserID string) (int, bool, error)
	Link(ctx context.Context, playerID int, id auth.Identity) error
}

type OAuthHandler struct {
	provider     providers.OAuthProvider
	players      PlayerResolver
	identities   IdentityLinker
	states       *auth.StateManager
	isConfigured bool
}

func NewOAuthHandler(provider providers.OAuthProvider, players PlayerResolver, identities IdentityLinker, states *auth.StateManager, isConfigured bool) *OAuthHandler {
	return &OAuthHandler{
		provider:     provider,
		players:      players,
		identities:   identities,
		states:       states,
		isConfigured: isConfigured,
	}
}

func (h *OAuthHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	name := h.provider.Name()
	logger := slog.With("handler", name+"_oauth_init")

	if !h.isConfigured {
		response.Error(w, r, logger, errors.External(fmt.Sprintf("%s OAuth is not properly configured", name)))
		return
	}

	redirectURI := resolveRedirectURI(r.URL.Query().Get("redirect_uri"))

	state, err := h.states.GenerateState(r.Context(), name, r.UserAgent(), redirectURI)
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to initialize OAuth flow", err))
		return
	}

	http.Redirect(w, r, h.provider.GetAuthURL(state), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	name := h.provider.Name()
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	logger := slog.With(
		"handler", name+"_oauth_callback",
		"ip", r.RemoteAddr,
		"has_code", code != "",
		"has_state", state != "",
	)

	entry, err := h.states.ValidateState(r.Context(), state, name, r.UserAgent())
	if err != nil {
		logger.Warn("OAuth state validation failed", "error", err)
		redirectWithError(w, r, "", "invalid_state")
		return
	}
	redirectURI := entry.RedirectURI

	if oauthErr := query.Get("error"); oauthErr != "" {
		logger.Warn("OAuth authorization denied",
			"oauth_error", oauthErr,
			"error_description", query.Get("error_description"))
		redirectWithError(w, r, redirectURI, "oauth_denied")
		return
	}
	if code == "" {
		logger.Error("OAuth callback missing authorization code")
		redirectWithError(w, r, redirectURI, "oauth_error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	token, err := h.provider.ExchangeCode(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		redirectWithError(w, r, redirectURI, "oauth_error")
		return
	}

	userInfo, err := h.provider.GetUserInfo(ctx, token)
	if err != nil {
		logger.Error("Failed to get user info", "error", err)
		redirectWithError(w, r, redirectURI, "oauth_error")
		return
	}

	userLogger := logger.With("provider_user_id", userInfo.ID)
	if userInfo.Email == "" || !userInfo.EmailVerified {
		userLogger.Error("User missing verified email")
		redirectWithError(w, r, redirectURI, "email_not_verified")
		return
	}

	p, err := h.resolvePlayer(ctx, name, userInfo)
	if err != nil {
		userLogger.Error("Failed to resolve player", "error", err)
		redirectWithError(w, r, redirectURI, "database_error")
		return
	}

	jwtToken, err := auth.GenerateJWT(p.ID, p.Username, p.Email, p.Role.String())
	if err != nil {
		userLogger.Error("Failed to generate JWT token", "error", err)
		redirectWithError(w, r, redirectURI, "auth_error")
		return
	}
	cookies.SetAuthCookie(w, jwtToken)

	userLogger.Info("OAuth authentication successful",
		"player_id", p.ID,
		"player_username", p.Username,
		"player_role", p.Role)

	http.Redirect(w, r, redirectURI+"/auth/callback?success=true", http.StatusTemporaryRedirect)
}

// resolvePlayer follows an existing provider link, or finds the player by
// email and links the provider account to it.
func (h *OAuthHandler) resolvePlayer(ctx context.Context, provider string, u *providers.OAuthUser) (*player.Player, error) {
	playerID, linked, err := h.identities.LinkedPlayer(ctx, provider, u.ID)
	if err != nil {
		return nil, err
	}
	if linked {
		return h.players.GetPlayerByID(ctx, playerID)
	}

	var avatar *string
	if u.AvatarURL != "" {
		avatar = &u.AvatarURL
	}
	p, err := h.players.FindOrCreatePlayerByOAuth(ctx, provider, u.ID, u.Email, u.Name, avatar)
	if err != nil {
		return nil, err
	}
	if err := h.identities.Link(ctx, p.ID, auth.Identity{Provider: provider, ProviderUserID: u.ID, Email: u.Email}); err != nil {
		return nil, err
	}
	return p, nil
}
