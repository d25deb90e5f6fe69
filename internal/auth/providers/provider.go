package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuthUser is the normalized user info returned by all OAuth providers.
type OAuthUser struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// OAuthProvider is the interface that all OAuth providers implement.
type OAuthProvider interface {
	Name() string
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error)
}

// base holds the oauth2 plumbing shared by every provider. apiURL is the
// root of the provider's user API.
type base struct {
	name   string
	config *oauth2.Config
	apiURL string
}

func (b *base) Name() string { return b.name }

func (b *base) GetAuthURL(state string) string {
	return b.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (b *base) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	logger := slog.With("provider", b.name, "operation", "exchange_code")
	logger.Debug("Exchanging authorization code for access token")

	token, err := b.config.Exchange(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	logger.Debug("Successfully exchanged code for token")
	return token, nil
}

// getJSON performs an authenticated GET against the provider API and
// decodes the body into out.
func (b *base) getJSON(ctx context.Context, token *oauth2.Token, path string, out any) error {
	logger := slog.With("provider", b.name, "operation", "get_json", "path", path)

	resp, err := b.config.Client(ctx, token).Get(b.apiURL + path)
	if err != nil {
		logger.Error("Provider API request failed", "error", err)
		return fmt.Errorf("%s API request failed: %w", b.name, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Provider API returned error status",
			"status_code", resp.StatusCode,
			"status", resp.Status)
		return fmt.Errorf("%s API returned status %d", b.name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Error("Failed to decode provider response", "error", err)
		return fmt.Errorf("failed to decode %s response: %w", b.name, err)
	}
	return nil
}
