package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

const settingsSchemaSQL = `
CREATE TABLE IF NOT EXISTS guild_settings (
	guild TEXT PRIMARY KEY,
	prefix TEXT NOT NULL DEFAULT '!',
	extensions TEXT NOT NULL DEFAULT '[]',
	mod_log_channel TEXT NOT NULL DEFAULT '',
	join_log_channel TEXT NOT NULL DEFAULT '',
	message_log_channel TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS role_timezones (
	guild TEXT NOT NULL,
	role TEXT NOT NULL,
	zone TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (guild, role)
);
`

type settingsRow struct {
	Guild             string `db:"guild"`
	Prefix            string `db:"prefix"`
	Extensions        string `db:"extensions"`
	ModLogChannel     string `db:"mod_log_channel"`
	JoinLogChannel    string `db:"join_log_channel"`
	MessageLogChannel string `db:"message_log_channel"`
	UpdatedAt         string `db:"updated_at"`
}

// settingsStore provides access to guild settings stored in SQLite.
type settingsStore struct {
	db *sqlx.DB
}

func newSettingsStore(db *sqlx.DB) (*settingsStore, error) {
	store := &settingsStore{db: db}
	if _, err := db.Exec(settingsSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}
	return store, nil
}

// Get returns the guild's settings, or nil when the guild was never configured.
func (ss *settingsStore) Get(ctx context.Context, guild string) (*GuildSettings, error) {
	var row settingsRow
	err := ss.db.GetContext(ctx, &row,
		`SELECT guild, prefix, extensions, mod_log_channel, join_log_channel, message_log_channel, updated_at
		FROM guild_settings WHERE guild = ?`, guild)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	var extensions []string
	if err := json.Unmarshal([]byte(row.Extensions), &extensions); err != nil {
		return nil, fmt.Errorf("guild %q: bad extensions: %w", guild, err)
	}

	return &GuildSettings{
		Guild:             row.Guild,
		Prefix:            row.Prefix,
		Extensions:        extensions,
		ModLogChannel:     row.ModLogChannel,
		JoinLogChannel:    row.JoinLogChannel,
		MessageLogChannel: row.MessageLogChannel,
	}, nil
}

// Upsert inserts or replaces the guild's settings.
func (ss *settingsStore) Upsert(ctx context.Context, settings *GuildSettings) error {
	extensions := settings.Extensions
	if extensions == nil {
		extensions = []string{}
	}
	sort.Strings(extensions)
	data, err := json.Marshal(extensions)
	if err != nil {
		return err
	}

	_, err = ss.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO guild_settings (guild, prefix, extensions, mod_log_channel, join_log_channel, message_log_channel, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		settings.Guild, settings.Prefix, string(data),
		settings.ModLogChannel, settings.JoinLogChannel, settings.MessageLogChannel,
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

// ListTimezones returns the guild's role timezone assignments ordered by role.
func (ss *settingsStore) ListTimezones(ctx context.Context, guild string) ([]*RoleTimezone, error) {
	var zones []*RoleTimezone
	err := ss.db.SelectContext(ctx, &zones,
		`SELECT role, zone FROM role_timezones WHERE guild = ? ORDER BY role`, guild)
	if err != nil {
		return nil, fmt.Errorf("failed to list timezones: %w", err)
	}
	return zones, nil
}

// UpsertTimezone inserts or replaces a role's timezone.
func (ss *settingsStore) UpsertTimezone(ctx context.Context, guild, role, zone string) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO role_timezones (guild, role, zone, updated_at) VALUES (?, ?, ?, ?)`,
		guild, role, zone, timestamp())
	if err != nil {
		return fmt.Errorf("failed to upsert timezone: %w", err)
	}
	return nil
}

// DeleteTimezone removes a role's timezone. Returns false when none existed.
func (ss *settingsStore) DeleteTimezone(ctx context.Context, guild, role string) (bool, error) {
	res, err := ss.db.ExecContext(ctx,
		`DELETE FROM role_timezones WHERE guild = ? AND role = ?`, guild, role)
	if err != nil {
		return false, fmt.Errorf("failed to delete timezone: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
