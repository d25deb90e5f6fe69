package providers

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
	Avatar     string `json:"avatar"`
}

type DiscordProvider struct {
	base
}

func NewDiscordProvider(config *oauth2.Config) *DiscordProvider {
	return &DiscordProvider{base{name: "discord", config: config, apiURL: "https://discord.com/api"}}
}

func (p *DiscordProvider) GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error) {
	var u discordUser
	if err := p.getJSON(ctx, token, "/users/@me", &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, fmt.Errorf("discord user info missing user ID")
	}

	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	var avatar string
	if u.Avatar != "" {
		avatar = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", u.ID, u.Avatar)
	}

	return &OAuthUser{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.Verified,
		Name:          name,
		AvatarURL:     avatar,
	}, nil
}
