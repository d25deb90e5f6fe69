package providers

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleProvider struct {
	base
}

func NewGoogleProvider(config *oauth2.Config) *GoogleProvider {
	return &GoogleProvider{base{name: "google", config: config, apiURL: "https://www.googleapis.com"}}
}

func (p *GoogleProvider) GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error) {
	var u googleUser
	if err := p.getJSON(ctx, token, "/oauth2/v2/userinfo", &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, fmt.Errorf("google user info missing user ID")
	}
	return &OAuthUser{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.VerifiedEmail,
		Name:          u.Name,
		AvatarURL:     u.Picture,
	}, nil
}
