package auth

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled            bool          `mapstructure:"enabled"`
	AdminKey           string        `mapstructure:"admin_key"`
	TokenIssuer        string        `mapstructure:"token_issuer"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_token_expiry"`
	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_token_expiry"`
}

func (c *Config) Validate() error {
	// Validate Auth config if enabled
	if c.Enabled {
		if c.AdminKey == "" {
			return fmt.Errorf("auth `admin_key` is required when auth is enabled")
		}
		if c.TokenIssuer == "" {
			return fmt.Errorf("auth `token_issuer` is required when auth is enabled")
		}
		if c.RefreshTokenSecret == "" {
			return fmt.Errorf("auth `refresh_token_secret` is required when auth is enabled")
		}
		if c.AccessTokenSecret == "" {
			return fmt.Errorf("auth `access_token_secret` is required when auth is enabled")
		}
	}
	return nil
}
