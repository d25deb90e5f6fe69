package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/oauth2"
)

type githubUser struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

type GitHubProvider struct {
	base
}

func NewGitHubProvider(config *oauth2.Config) *GitHubProvider {
	return &GitHubProvider{base{name: "github", config: config, apiURL: "https://api.github.com"}}
}

// GetUserInfo reads the profile and then the email list, because the
// profile email is empty for users who keep it private and is never
// marked verified.
func (p *GitHubProvider) GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error) {
	logger := slog.With("provider", p.name, "operation", "get_user_info")

	var u githubUser
	if err := p.getJSON(ctx, token, "/user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		logger.Error("GitHub user info missing user ID")
		return nil, fmt.Errorf("github user info missing user ID")
	}

	user := &OAuthUser{
		ID:        strconv.Itoa(u.ID),
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
	if user.Name == "" {
		user.Name = u.Login
	}

	var emails []githubEmail
	if err := p.getJSON(ctx, token, "/user/emails", &emails); err != nil {
		logger.Warn("Failed to fetch GitHub emails", "error", err)
		return user, nil
	}
	if e, ok := pickEmail(emails); ok {
		user.Email = e
		user.EmailVerified = true
	}

	logger.Debug("Successfully retrieved GitHub user info",
		"user_id", user.ID,
		"has_email", user.Email != "")
	return user, nil
}

// pickEmail prefers the primary verified address, then any verified one.
func pickEmail(emails []githubEmail) (string, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}
