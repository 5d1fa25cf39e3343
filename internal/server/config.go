package server

import (
	"fmt"

	"github.com/wardenbot/warden/internal/server/auth"
)

const (
	DefaultAddr           = "127.0.0.1:8080"
	DefaultDBPath         = "warden.db"
	DefaultCheckRateLimit = "30-S"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     auth.Config    `mapstructure:"auth"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type HTTPConfig struct {
	Addr           string   `mapstructure:"addr"`
	CertFile       string   `mapstructure:"cert_file"`
	KeyFile        string   `mapstructure:"key_file"`
	EnableHSTS     bool     `mapstructure:"enable_hsts"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Rate limit for the ACL check endpoint, in ulule/limiter format
	// (e.g. "30-S" = 30 requests per second).
	CheckRateLimit string `mapstructure:"check_rate_limit"`
}

type DatabaseConfig struct {
	// Path to the SQLite file. ":memory:" keeps everything in memory.
	Path string `mapstructure:"path"`
}

// BotConfig points at the bot process's internal HTTP endpoint for
// config-reload webhooks. An empty URL disables notifications.
type BotConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
	if c.HTTP.CheckRateLimit == "" {
		c.HTTP.CheckRateLimit = DefaultCheckRateLimit
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return fmt.Errorf("http `cert_file` and `key_file` must be set together")
	}
	return c.Auth.Validate()
}
