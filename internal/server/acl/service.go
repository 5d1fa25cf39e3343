package acl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wardenbot/warden/internal/aclspec"
)

// ReloadNotifier is told when a guild's rules changed so the bot process
// can refresh its cached configuration.
type ReloadNotifier interface {
	NotifyReload(ctx context.Context, guild string) error
}

// ACLService manages per-guild ACL rules and answers permission checks.
type ACLService struct {
	store    *ruleStore
	cache    *decisionCache
	notifier ReloadNotifier
}

// NewACLService creates a new ACL service on top of the given database.
// notifier may be nil when no bot webhook is configured.
func NewACLService(db *sqlx.DB, notifier ReloadNotifier) (*ACLService, error) {
	store, err := newRuleStore(db)
	if err != nil {
		return nil, err
	}
	return &ACLService{
		store:    store,
		cache:    newDecisionCache(),
		notifier: notifier,
	}, nil
}

// ListRules returns the guild's rules, optionally including soft-deleted ones.
func (s *ACLService) ListRules(ctx context.Context, guild string, includeDeleted bool) ([]*aclspec.Rule, error) {
	return s.store.List(ctx, guild, includeDeleted)
}

// GetRule returns one rule by ID.
func (s *ACLService) GetRule(ctx context.Context, guild, id string) (*aclspec.Rule, error) {
	return s.store.Get(ctx, guild, id)
}

// CreateRule validates and stores a new rule. A missing ID is assigned.
func (s *ACLService) CreateRule(ctx context.Context, guild string, rule *aclspec.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if err := s.validateRule(ctx, guild, rule); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, guild, rule); err != nil {
		return err
	}
	s.rulesChanged(ctx, guild, "create", rule)
	return nil
}

// UpdateRule validates and replaces an existing rule, keyed by its ID.
func (s *ACLService) UpdateRule(ctx context.Context, guild string, rule *aclspec.Rule) error {
	if _, err := s.store.Get(ctx, guild, rule.ID); err != nil {
		return err
	}
	if err := s.validateRule(ctx, guild, rule); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, guild, rule); err != nil {
		return err
	}
	s.rulesChanged(ctx, guild, "update", rule)
	return nil
}

// DeleteRule soft-deletes a rule by ID.
func (s *ACLService) DeleteRule(ctx context.Context, guild, id string) error {
	ok, err := s.store.SoftDelete(ctx, guild, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRuleNotFound
	}
	s.rulesChanged(ctx, guild, "delete", nil)
	return nil
}

// ImportRuleSet replaces the guild's live rules with the given ruleset.
func (s *ACLService) ImportRuleSet(ctx context.Context, guild string, ruleset *aclspec.RuleSet) error {
	if err := ruleset.Validate(); err != nil {
		return err
	}
	live := ruleset.LiveRules()
	for _, rule := range live {
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
	}
	if err := s.store.ReplaceAll(ctx, guild, live); err != nil {
		return err
	}
	s.rulesChanged(ctx, guild, "import", nil)
	return nil
}

// ExportRuleSet returns the guild's live rules as a ruleset.
func (s *ACLService) ExportRuleSet(ctx context.Context, guild string) (*aclspec.RuleSet, error) {
	rules, err := s.store.ListLive(ctx, guild)
	if err != nil {
		return nil, err
	}
	return aclspec.NewRuleSet(guild, rules...), nil
}

// CanUse decides whether the invocation is permitted, using the decision
// cache. This is the bot's hot path.
func (s *ACLService) CanUse(ctx context.Context, guild string, ec *Context) (bool, error) {
	key := cacheKey(guild, ec)
	if allowed, ok := s.cache.Get(key); ok {
		return allowed, nil
	}

	rules, err := s.store.ListLive(ctx, guild)
	if err != nil {
		return false, err
	}

	allowed := Evaluate(rules, ec)
	s.cache.Set(key, allowed)
	return allowed, nil
}

// CheckAccess evaluates the invocation and reports which rules decided the
// outcome. Used by the console's inspector; bypasses the decision cache.
func (s *ACLService) CheckAccess(ctx context.Context, guild string, ec *Context) (*Explanation, error) {
	rules, err := s.store.ListLive(ctx, guild)
	if err != nil {
		return nil, err
	}
	return Explain(rules, ec), nil
}

func (s *ACLService) validateRule(ctx context.Context, guild string, rule *aclspec.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	taken, err := s.store.NameTaken(ctx, guild, rule.Name, rule.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", aclspec.ErrDuplicateRuleName, rule.Name)
	}
	return nil
}

func (s *ACLService) rulesChanged(ctx context.Context, guild, op string, rule *aclspec.Rule) {
	deleted := s.cache.DeleteGuild(guild)
	slog.Debug("acl rules changed", "guild", guild, "op", op, "cache.deleted", deleted, "cache.count", s.cache.Count())

	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyReload(ctx, guild); err != nil {
		slog.Warn("bot reload notify failed", "guild", guild, "error", err)
	}
}
