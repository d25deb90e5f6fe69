package auth

import (
	"log/slog"

	"planets-engine/internal/auth/providers"
	"planets-engine/internal/shared/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// ProviderEntry pairs a provider with whether its credentials are set.
type ProviderEntry struct {
	Provider   providers.OAuthProvider
	Configured bool
}

type OAuthConfig struct {
	Providers []ProviderEntry
}

func oauth2Config(p config.ProviderConfig, endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURL,
		Scopes:       p.Scopes,
		Endpoint:     endpoint,
	}
}

// NewOAuthConfig builds every supported sign-in provider. Unconfigured
// providers stay routable and answer with a 503.
func NewOAuthConfig(cfg config.OAuthConfig) *OAuthConfig {
	logger := slog.With("component", "oauth", "operation", "init")

	entries := []ProviderEntry{
		{providers.NewGoogleProvider(oauth2Config(cfg.Google, google.Endpoint)), cfg.Google.Configured()},
		{providers.NewGitHubProvider(oauth2Config(cfg.GitHub, github.Endpoint)), cfg.GitHub.Configured()},
		{providers.NewDiscordProvider(oauth2Config(cfg.Discord, providers.DiscordEndpoint)), cfg.Discord.Configured()},
	}

	enabled := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Configured {
			enabled = append(enabled, e.Provider.Name())
		} else {
			logger.Warn("OAuth provider missing client credentials", "provider", e.Provider.Name())
		}
	}
	logger.Info("OAuth providers ready", "enabled", enabled)

	return &OAuthConfig{Providers: entries}
}
