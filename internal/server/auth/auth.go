// Package auth issues and validates the admin API tokens used by the
// console and the bot process. Tokens are HS256 JWT pairs exchanged for a
// configured admin key; refresh tokens are single-use.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

var (
	ErrInvalidAdminKey     = errors.New("invalid admin key")
	ErrInvalidRequestToken = errors.New("invalid request token")
	ErrTokenReused         = errors.New("refresh token already used")
)

type AuthService struct {
	config *Config
	// IDs of refresh tokens that were already redeemed. Entries expire
	// with the refresh token lifetime, after which the token is invalid
	// on its own.
	usedTokens *expirable.LRU[string, struct{}]
}

func NewAuthService(config *Config) *AuthService {
	return &AuthService{
		config:     config,
		usedTokens: expirable.NewLRU[string, struct{}](0, nil, config.RefreshTokenExpiry), // 0 = LRU off
	}
}

func (s *AuthService) IsEnabled() bool {
	return s.config.Enabled
}

// GenerateTokens exchanges the admin key for a fresh token pair.
func (s *AuthService) GenerateTokens(ctx context.Context, adminKey string) (string, string, error) {
	if !s.IsEnabled() {
		slog.Debug("auth is disabled, will not generate tokens")
		return "", "", nil
	}

	if subtle.ConstantTimeCompare([]byte(adminKey), []byte(s.config.AdminKey)) != 1 {
		return "", "", ErrInvalidAdminKey
	}

	accessToken, refreshToken, err := generateTokenPair(s.config.TokenIssuer, s.config)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token pair: %w", err)
	}

	return accessToken, refreshToken, nil
}

// RefreshToken redeems a refresh token for a new pair. A refresh token can
// be redeemed once.
func (s *AuthService) RefreshToken(ctx context.Context, oldRefreshToken string) (string, string, error) {
	if oldRefreshToken == "" {
		return "", "", ErrInvalidRequestToken
	}

	claims, err := s.ValidateRefreshToken(ctx, oldRefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to refresh token pair: %w", err)
	}

	if _, used := s.usedTokens.Get(claims.ID); used {
		return "", "", ErrTokenReused
	}
	s.usedTokens.Add(claims.ID, struct{}{})

	accessToken, refreshToken, err := generateTokenPair(claims.Subject, s.config)
	if err != nil {
		return "", "", fmt.Errorf("failed to refresh token pair: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("invalid access token")
	}

	claims, err := ParseClaims(accessToken, s.config.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if claims.Type != AccessToken {
		return nil, fmt.Errorf("invalid access token: wrong token type got %q", claims.Type)
	}

	return claims, nil
}

func (s *AuthService) ValidateRefreshToken(ctx context.Context, refreshToken string) (*Claims, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("invalid refresh token")
	}

	claims, err := ParseClaims(refreshToken, s.config.RefreshTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	if claims.Type != RefreshToken {
		return nil, fmt.Errorf("invalid refresh token: wrong token type got %q", claims.Type)
	}

	return claims, nil
}

func generateTokenPair(subject string, config *Config) (accessToken string, refreshToken string, err error) {
	accessToken, err = newAccessToken(subject, config.TokenIssuer, config.AccessTokenSecret, config.AccessTokenExpiry)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = newRefreshToken(subject, config.TokenIssuer, config.RefreshTokenSecret, config.RefreshTokenExpiry)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
