package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:            true,
		AdminKey:           "super-secret",
		TokenIssuer:        "warden-test",
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: time.Hour,
	}
}

func TestGenerateTokens(t *testing.T) {
	svc := NewAuthService(testConfig())
	ctx := context.Background()

	access, refresh, err := svc.GenerateTokens(ctx, "super-secret")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := svc.ValidateAccessToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, AccessToken, claims.Type)
	assert.Equal(t, "warden-test", claims.Issuer)

	refreshClaims, err := svc.ValidateRefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, refreshClaims.Type)
}

func TestGenerateTokens_WrongAdminKey(t *testing.T) {
	svc := NewAuthService(testConfig())

	_, _, err := svc.GenerateTokens(context.Background(), "guess")
	assert.ErrorIs(t, err, ErrInvalidAdminKey)
}

func TestGenerateTokens_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	svc := NewAuthService(cfg)

	access, refresh, err := svc.GenerateTokens(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestRefreshToken(t *testing.T) {
	svc := NewAuthService(testConfig())
	ctx := context.Background()

	_, refresh, err := svc.GenerateTokens(ctx, "super-secret")
	require.NoError(t, err)

	access2, refresh2, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, access2)
	require.NotEmpty(t, refresh2)
	assert.NotEqual(t, refresh, refresh2)

	_, err = svc.ValidateAccessToken(ctx, access2)
	assert.NoError(t, err)
}

func TestRefreshToken_SingleUse(t *testing.T) {
	svc := NewAuthService(testConfig())
	ctx := context.Background()

	_, refresh, err := svc.GenerateTokens(ctx, "super-secret")
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrTokenReused)
}

func TestRefreshToken_Invalid(t *testing.T) {
	svc := NewAuthService(testConfig())
	ctx := context.Background()

	_, _, err := svc.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRequestToken)

	_, _, err = svc.RefreshToken(ctx, "not-a-jwt")
	assert.Error(t, err)

	// An access token is not redeemable as a refresh token.
	access, _, err := svc.GenerateTokens(ctx, "super-secret")
	require.NoError(t, err)
	_, _, err = svc.RefreshToken(ctx, access)
	assert.Error(t, err)
}

func TestValidateAccessToken_RejectsTampered(t *testing.T) {
	svc := NewAuthService(testConfig())
	ctx := context.Background()

	access, refresh, err := svc.GenerateTokens(ctx, "super-secret")
	require.NoError(t, err)

	// A refresh token is not a valid access token.
	_, err = svc.ValidateAccessToken(ctx, refresh)
	assert.Error(t, err)

	// Signed with a different secret.
	other := NewAuthService(&Config{
		Enabled:            true,
		AdminKey:           "super-secret",
		TokenIssuer:        "warden-test",
		AccessTokenSecret:  "different-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: time.Hour,
	})
	_, err = other.ValidateAccessToken(ctx, access)
	assert.Error(t, err)
}

func TestValidateAccessToken_RejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenExpiry = time.Millisecond
	svc := NewAuthService(cfg)
	ctx := context.Background()

	access, _, err := svc.GenerateTokens(ctx, "super-secret")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = svc.ValidateAccessToken(ctx, access)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Run("disabled needs nothing", func(t *testing.T) {
		cfg := &Config{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("enabled requires secrets", func(t *testing.T) {
		cfg := testConfig()
		assert.NoError(t, cfg.Validate())

		for _, clear := range []func(*Config){
			func(c *Config) { c.AdminKey = "" },
			func(c *Config) { c.TokenIssuer = "" },
			func(c *Config) { c.RefreshTokenSecret = "" },
			func(c *Config) { c.AccessTokenSecret = "" },
		} {
			cfg := testConfig()
			clear(cfg)
			assert.Error(t, cfg.Validate())
		}
	})
}
