// Package settings manages per-guild bot configuration: command prefix,
// enabled extensions, logging channel destinations and role timezones.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidPrefix    = errors.New("prefix must be 1-16 non-whitespace characters")
	ErrUnknownExtension = errors.New("unknown extension")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrTimezoneNotFound = errors.New("role timezone not found")
)

const (
	DefaultPrefix = "!"
	maxPrefixLen  = 16
)

// KnownExtensions is the catalogue of bot extensions a guild may enable.
var KnownExtensions = mapset.NewSet(
	"acl",
	"levels",
	"logging",
	"moderation",
	"polls",
	"reminders",
	"timezones",
)

// GuildSettings holds one guild's bot configuration. Channel fields are
// Discord channel IDs; "" disables the destination.
type GuildSettings struct {
	Guild             string   `json:"guild"`
	Prefix            string   `json:"prefix"`
	Extensions        []string `json:"extensions"`
	ModLogChannel     string   `json:"mod_log_channel"`
	JoinLogChannel    string   `json:"join_log_channel"`
	MessageLogChannel string   `json:"message_log_channel"`
}

// RoleTimezone maps a Discord role to an IANA timezone name.
type RoleTimezone struct {
	Role string `json:"role" db:"role"`
	Zone string `json:"zone" db:"zone"`
}

// Validate checks the settings against their allowed domains.
func (g *GuildSettings) Validate() error {
	if err := validatePrefix(g.Prefix); err != nil {
		return err
	}
	for _, ext := range g.Extensions {
		if !KnownExtensions.Contains(ext) {
			return fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
		}
	}
	return nil
}

func validatePrefix(prefix string) error {
	if prefix == "" || utf8.RuneCountInString(prefix) > maxPrefixLen {
		return ErrInvalidPrefix
	}
	for _, r := range prefix {
		if unicode.IsSpace(r) {
			return ErrInvalidPrefix
		}
	}
	return nil
}

// ReloadNotifier is told when a guild's settings changed so the bot
// process can refresh its cached configuration.
type ReloadNotifier interface {
	NotifyReload(ctx context.Context, guild string) error
}

// SettingsService manages per-guild settings and role timezones.
type SettingsService struct {
	store    *settingsStore
	notifier ReloadNotifier
}

// NewSettingsService creates a new settings service on top of the given
// database. notifier may be nil when no bot webhook is configured.
func NewSettingsService(db *sqlx.DB, notifier ReloadNotifier) (*SettingsService, error) {
	store, err := newSettingsStore(db)
	if err != nil {
		return nil, err
	}
	return &SettingsService{
		store:    store,
		notifier: notifier,
	}, nil
}

// Get returns the guild's settings, falling back to defaults for guilds
// that were never configured.
func (s *SettingsService) Get(ctx context.Context, guild string) (*GuildSettings, error) {
	settings, err := s.store.Get(ctx, guild)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &GuildSettings{
			Guild:      guild,
			Prefix:     DefaultPrefix,
			Extensions: []string{},
		}, nil
	}
	return settings, nil
}

// Update validates and stores the guild's settings.
func (s *SettingsService) Update(ctx context.Context, settings *GuildSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, settings); err != nil {
		return err
	}
	s.settingsChanged(ctx, settings.Guild, "settings")
	return nil
}

// ListRoleTimezones returns the guild's role timezone assignments.
func (s *SettingsService) ListRoleTimezones(ctx context.Context, guild string) ([]*RoleTimezone, error) {
	return s.store.ListTimezones(ctx, guild)
}

// SetRoleTimezone assigns an IANA timezone to a role.
func (s *SettingsService) SetRoleTimezone(ctx context.Context, guild, role, zone string) error {
	zone = strings.TrimSpace(zone)
	if _, err := time.LoadLocation(zone); err != nil || zone == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, zone)
	}
	if err := s.store.UpsertTimezone(ctx, guild, role, zone); err != nil {
		return err
	}
	s.settingsChanged(ctx, guild, "timezone")
	return nil
}

// DeleteRoleTimezone removes a role's timezone assignment.
func (s *SettingsService) DeleteRoleTimezone(ctx context.Context, guild, role string) error {
	ok, err := s.store.DeleteTimezone(ctx, guild, role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTimezoneNotFound
	}
	s.settingsChanged(ctx, guild, "timezone")
	return nil
}

func (s *SettingsService) settingsChanged(ctx context.Context, guild, what string) {
	slog.Debug("guild settings changed", "guild", guild, "what", what)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyReload(ctx, guild); err != nil {
		slog.Warn("bot reload notify failed", "guild", guild, "error", err)
	}
}
