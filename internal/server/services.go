package server

import (
	"github.com/jmoiron/sqlx"
	"github.com/wardenbot/warden/internal/notify"
	"github.com/wardenbot/warden/internal/server/acl"
	"github.com/wardenbot/warden/internal/server/auth"
	"github.com/wardenbot/warden/internal/server/settings"
)

// Services holds the server's service layer.
type Services struct {
	ACL      *acl.ACLService
	Settings *settings.SettingsService
	Auth     *auth.AuthService
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	var notifier *notify.BotNotifier
	if config.Bot.URL != "" {
		notifier = notify.New(config.Bot.URL, config.Bot.Token)
	}

	// A nil *BotNotifier must stay a nil interface inside the services.
	var aclNotifier acl.ReloadNotifier
	var settingsNotifier settings.ReloadNotifier
	if notifier != nil {
		aclNotifier = notifier
		settingsNotifier = notifier
	}

	aclSvc, err := acl.NewACLService(db, aclNotifier)
	if err != nil {
		return nil, err
	}

	settingsSvc, err := settings.NewSettingsService(db, settingsNotifier)
	if err != nil {
		return nil, err
	}

	return &Services{
		ACL:      aclSvc,
		Settings: settingsSvc,
		Auth:     auth.NewAuthService(&config.Auth),
	}, nil
}
