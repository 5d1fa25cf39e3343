package acl

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/wardenbot/warden/internal/aclspec"
)

// Explanation is the outcome of one evaluation. Matched holds the
// applicable rules of the deciding specificity bucket; Default is set when
// no bucket had an applicable rule and the result fell back to allow.
type Explanation struct {
	Allowed     bool
	Specificity aclspec.Specificity
	Matched     []*aclspec.Rule
	Default     bool
}

// Denial returns the denial message of the first matched DISABLED rule
// carrying one, or "" when the evaluation allowed the command.
func (e *Explanation) Denial() string {
	if e.Allowed {
		return ""
	}
	for _, rule := range e.Matched {
		if rule.Action == aclspec.ActionDisabled && rule.Error != "" {
			return rule.Error
		}
	}
	return ""
}

// Evaluate decides whether the context's subject may run the command.
//
// Rules whose command/channel scope does not cover the context are
// discarded, the rest are grouped into buckets by their exact specificity
// key, and buckets are walked from most to least specific. The first
// bucket containing at least one applicable rule decides: a single ENABLED
// rule in it allows the command even when outnumbered by DISABLED rules at
// the same specificity. When no bucket has an applicable rule the command
// is allowed.
//
// The input rule list is treated as an unordered, read-only snapshot;
// shuffling it never changes the result.
func Evaluate(rules []*aclspec.Rule, ctx *Context) bool {
	return Explain(rules, ctx).Allowed
}

// Explain runs the same resolution as Evaluate and reports which rules
// decided the outcome, for the console's rule inspector.
func Explain(rules []*aclspec.Rule, ctx *Context) *Explanation {
	roles := ctx.Roles
	if roles == nil {
		roles = mapset.NewSet[string]()
	}

	// Group candidate rules by their exact specificity key. Key equality,
	// not rule identity, defines a bucket.
	buckets := make(map[aclspec.Specificity][]*aclspec.Rule)
	for _, rule := range rules {
		if !matchesScope(rule, ctx) {
			continue
		}
		key := rule.Specificity()
		buckets[key] = append(buckets[key], rule)
	}

	// Walk buckets in descending lexicographic specificity order.
	keys := make([]aclspec.Specificity, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b aclspec.Specificity) int {
		return b.Compare(a)
	})

	for _, key := range keys {
		var matched []*aclspec.Rule
		allowed := false
		for _, rule := range buckets[key] {
			if !applies(rule, roles) {
				continue
			}
			matched = append(matched, rule)
			if rule.Action == aclspec.ActionEnabled {
				allowed = true
			}
		}
		if len(matched) == 0 {
			// No rule in this bucket applies to the subject's roles.
			// The bucket contributes nothing.
			continue
		}
		return &Explanation{
			Allowed:     allowed,
			Specificity: key,
			Matched:     matched,
		}
	}

	// No rule ever applied. Allowed by default.
	return &Explanation{Allowed: true, Default: true}
}

// matchesScope reports whether the rule's command/channel scope covers the
// context. Roles are not consulted here; role matching happens per bucket
// during resolution.
func matchesScope(rule *aclspec.Rule, ctx *Context) bool {
	if rule.Commands.Cardinality() > 0 && !rule.Commands.Contains(ctx.Command) {
		return false
	}
	if rule.Channels.Cardinality() > 0 &&
		!rule.Channels.Contains(ctx.Channel) &&
		(ctx.Category == "" || !rule.Channels.Contains(ctx.Category)) {
		return false
	}
	return true
}

// applies reports whether the rule's role condition holds for the
// subject's role set. A rule without roles applies to everyone.
func applies(rule *aclspec.Rule, roles mapset.Set[string]) bool {
	if rule.Roles.Cardinality() == 0 {
		return true
	}
	switch rule.Modifier {
	case aclspec.ModifierNone:
		return rule.Roles.Intersect(roles).Cardinality() == 0
	case aclspec.ModifierAny:
		return rule.Roles.Intersect(roles).Cardinality() > 0
	case aclspec.ModifierAll:
		return rule.Roles.IsSubset(roles)
	default:
		// Modifiers are validated on write; anything else is a bug.
		panic(fmt.Sprintf("unknown modifier %q", rule.Modifier))
	}
}
