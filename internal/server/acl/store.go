package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jmoiron/sqlx"
	"github.com/wardenbot/warden/internal/aclspec"
)

var ErrRuleNotFound = errors.New("rule not found")

const ruleSchemaSQL = `
CREATE TABLE IF NOT EXISTS acl_rules (
	id TEXT PRIMARY KEY,
	guild TEXT NOT NULL,
	name TEXT NOT NULL,
	commands TEXT NOT NULL DEFAULT '[]',
	channels TEXT NOT NULL DEFAULT '[]',
	roles TEXT NOT NULL DEFAULT '[]',
	modifier TEXT NOT NULL,
	action TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	deleted INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_acl_rules_guild ON acl_rules(guild);
CREATE UNIQUE INDEX IF NOT EXISTS idx_acl_rules_guild_name ON acl_rules(guild, name) WHERE deleted = 0;
`

// ruleRow is the flattened database form of an aclspec.Rule. Scope sets
// are stored as JSON string arrays.
type ruleRow struct {
	ID        string `db:"id"`
	Guild     string `db:"guild"`
	Name      string `db:"name"`
	Commands  string `db:"commands"`
	Channels  string `db:"channels"`
	Roles     string `db:"roles"`
	Modifier  string `db:"modifier"`
	Action    string `db:"action"`
	Error     string `db:"error"`
	Deleted   bool   `db:"deleted"`
	UpdatedAt string `db:"updated_at"`
}

// ruleStore provides access to the ACL rules stored in SQLite.
type ruleStore struct {
	db *sqlx.DB
}

// newRuleStore creates a new store using an existing database connection.
func newRuleStore(db *sqlx.DB) (*ruleStore, error) {
	store := &ruleStore{db: db}
	if _, err := db.Exec(ruleSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize rule store: %w", err)
	}
	return store, nil
}

// ListLive returns all non-deleted rules for the guild.
func (rs *ruleStore) ListLive(ctx context.Context, guild string) ([]*aclspec.Rule, error) {
	return rs.list(ctx, guild, false)
}

// List returns all rules for the guild, optionally including soft-deleted ones.
func (rs *ruleStore) List(ctx context.Context, guild string, includeDeleted bool) ([]*aclspec.Rule, error) {
	return rs.list(ctx, guild, includeDeleted)
}

func (rs *ruleStore) list(ctx context.Context, guild string, includeDeleted bool) ([]*aclspec.Rule, error) {
	query := `SELECT id, guild, name, commands, channels, roles, modifier, action, error, deleted, updated_at
		FROM acl_rules WHERE guild = ?`
	if !includeDeleted {
		query += ` AND deleted = 0`
	}
	query += ` ORDER BY name`

	var rows []ruleRow
	if err := rs.db.SelectContext(ctx, &rows, query, guild); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]*aclspec.Rule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Get retrieves one rule by its ID.
func (rs *ruleStore) Get(ctx context.Context, guild, id string) (*aclspec.Rule, error) {
	var row ruleRow
	err := rs.db.GetContext(ctx, &row,
		`SELECT id, guild, name, commands, channels, roles, modifier, action, error, deleted, updated_at
		FROM acl_rules WHERE guild = ? AND id = ?`, guild, id)
	if err != nil {
		return nil, ErrRuleNotFound
	}
	return row.toRule()
}

// Upsert inserts or replaces a rule.
func (rs *ruleStore) Upsert(ctx context.Context, guild string, rule *aclspec.Rule) error {
	row, err := fromRule(guild, rule)
	if err != nil {
		return err
	}
	_, err = rs.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO acl_rules (id, guild, name, commands, channels, roles, modifier, action, error, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Guild, row.Name, row.Commands, row.Channels, row.Roles,
		row.Modifier, row.Action, row.Error, row.Deleted, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %q: %w", rule.Name, err)
	}
	return nil
}

// SoftDelete marks a rule deleted. Returns false when no live rule matched.
func (rs *ruleStore) SoftDelete(ctx context.Context, guild, id string) (bool, error) {
	res, err := rs.db.ExecContext(ctx,
		`UPDATE acl_rules SET deleted = 1, updated_at = ? WHERE guild = ? AND id = ? AND deleted = 0`,
		timestamp(), guild, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// NameTaken reports whether another live rule in the guild already uses the name.
func (rs *ruleStore) NameTaken(ctx context.Context, guild, name, excludeID string) (bool, error) {
	var count int
	err := rs.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM acl_rules WHERE guild = ? AND name = ? AND id != ? AND deleted = 0`,
		guild, name, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check rule name: %w", err)
	}
	return count > 0, nil
}

// ReplaceAll soft-deletes the guild's live rules and inserts the given ones
// in a single transaction. Used by ruleset import.
func (rs *ruleStore) ReplaceAll(ctx context.Context, guild string, rules []*aclspec.Rule) error {
	tx, err := rs.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE acl_rules SET deleted = 1, updated_at = ? WHERE guild = ? AND deleted = 0`,
		timestamp(), guild); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR REPLACE INTO acl_rules (id, guild, name, commands, channels, roles, modifier, action, error, deleted, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	for _, rule := range rules {
		row, err := fromRule(guild, rule)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			row.ID, row.Guild, row.Name, row.Commands, row.Channels, row.Roles,
			row.Modifier, row.Action, row.Error, row.Deleted, row.UpdatedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert rule %q: %w", rule.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ruleRow) toRule() (*aclspec.Rule, error) {
	commands, err := decodeSet(r.Commands)
	if err != nil {
		return nil, fmt.Errorf("rule %q: bad commands: %w", r.Name, err)
	}
	channels, err := decodeSet(r.Channels)
	if err != nil {
		return nil, fmt.Errorf("rule %q: bad channels: %w", r.Name, err)
	}
	roles, err := decodeSet(r.Roles)
	if err != nil {
		return nil, fmt.Errorf("rule %q: bad roles: %w", r.Name, err)
	}

	return &aclspec.Rule{
		ID:       r.ID,
		Name:     r.Name,
		Commands: commands,
		Channels: channels,
		Roles:    roles,
		Modifier: aclspec.Modifier(r.Modifier),
		Action:   aclspec.Action(r.Action),
		Error:    r.Error,
		Deleted:  r.Deleted,
	}, nil
}

func fromRule(guild string, rule *aclspec.Rule) (*ruleRow, error) {
	commands, err := encodeSet(rule.Commands)
	if err != nil {
		return nil, err
	}
	channels, err := encodeSet(rule.Channels)
	if err != nil {
		return nil, err
	}
	roles, err := encodeSet(rule.Roles)
	if err != nil {
		return nil, err
	}

	return &ruleRow{
		ID:        rule.ID,
		Guild:     guild,
		Name:      rule.Name,
		Commands:  commands,
		Channels:  channels,
		Roles:     roles,
		Modifier:  string(rule.Modifier),
		Action:    string(rule.Action),
		Error:     rule.Error,
		Deleted:   rule.Deleted,
		UpdatedAt: timestamp(),
	}, nil
}

func encodeSet(set mapset.Set[string]) (string, error) {
	values := set.ToSlice()
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeSet(data string) (mapset.Set[string], error) {
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return mapset.NewSet(values...), nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
