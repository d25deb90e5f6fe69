package auth

import (
	"fmt"
	"strconv"
	"time"

	"planets-engine/internal/shared/config"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	PlayerID int    `json:"player_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const tokenIssuer = "planets-engine"

func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == "admin"
}

func jwtSettings() (string, time.Duration, error) {
	cfg := config.GlobalConfig
	if cfg == nil {
		return "", 0, fmt.Errorf("configuration not initialized")
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		return "", 0, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	expiration := cfg.Auth.TokenExpiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return cfg.Auth.JWTSecret, expiration, nil
}

func GenerateJWT(playerID int, username, email, role string) (string, error) {
	secret, expiration, err := jwtSettings()
	if err != nil {
		return "", fmt.Errorf("cannot generate JWT: %w", err)
	}

	now := time.Now()
	claims := Claims{
		PlayerID: playerID,
		Username: username,
		Email:    email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   "player_" + strconv.Itoa(playerID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateJWT(tokenString string) (*Claims, error) {
	secret, _, err := jwtSettings()
	if err != nil {
		return nil, fmt.Errorf("cannot validate JWT: %w", err)
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
