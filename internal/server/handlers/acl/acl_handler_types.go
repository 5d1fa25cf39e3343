package acl

import (
	"sort"

	"github.com/wardenbot/warden/internal/aclspec"
	"github.com/wardenbot/warden/internal/server/acl"
)

// RuleRequest is the JSON body for rule create/update. Scope fields are
// plain string lists; empty means unscoped.
type RuleRequest struct {
	Name     string   `json:"name" binding:"required"`
	Commands []string `json:"commands"`
	Channels []string `json:"channels"`
	Roles    []string `json:"roles"`
	Modifier string   `json:"modifier" binding:"required"`
	Action   string   `json:"action" binding:"required"`
	Error    string   `json:"error"`
}

// ToRule converts the request into a rule record. id may be "" for
// creates; the service assigns one.
func (r *RuleRequest) ToRule(id string) (*aclspec.Rule, error) {
	modifier, err := aclspec.ParseModifier(r.Modifier)
	if err != nil {
		return nil, err
	}
	action, err := aclspec.ParseAction(r.Action)
	if err != nil {
		return nil, err
	}

	rule := aclspec.NewRule(r.Name, modifier, action).
		WithCommands(r.Commands...).
		WithChannels(r.Channels...).
		WithRoles(r.Roles...).
		WithError(r.Error)
	if id != "" {
		rule.ID = id
	}
	return rule, nil
}

// RuleResponse is the JSON form of a rule. Scope lists are sorted for
// stable output.
type RuleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Commands    []string `json:"commands"`
	Channels    []string `json:"channels"`
	Roles       []string `json:"roles"`
	Modifier    string   `json:"modifier"`
	Action      string   `json:"action"`
	Error       string   `json:"error,omitempty"`
	Deleted     bool     `json:"deleted,omitempty"`
	Specificity string   `json:"specificity"`
}

func toRuleResponse(rule *aclspec.Rule) *RuleResponse {
	return &RuleResponse{
		ID:          rule.ID,
		Name:        rule.Name,
		Commands:    sortedSlice(rule.Commands.ToSlice()),
		Channels:    sortedSlice(rule.Channels.ToSlice()),
		Roles:       sortedSlice(rule.Roles.ToSlice()),
		Modifier:    string(rule.Modifier),
		Action:      string(rule.Action),
		Error:       rule.Error,
		Deleted:     rule.Deleted,
		Specificity: rule.Specificity().String(),
	}
}

func toRuleResponses(rules []*aclspec.Rule) []*RuleResponse {
	out := make([]*RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	return out
}

func sortedSlice(values []string) []string {
	if values == nil {
		values = []string{}
	}
	sort.Strings(values)
	return values
}

// CheckRequest is the JSON body for the permission inspector.
type CheckRequest struct {
	Command  string   `json:"command" binding:"required"`
	Channel  string   `json:"channel" binding:"required"`
	Category string   `json:"category"`
	Roles    []string `json:"roles"`
}

func (r *CheckRequest) ToContext() *acl.Context {
	return acl.NewContext(r.Command, r.Channel, r.Roles...).WithCategory(r.Category)
}

// CanResponse is the bot-side decision: the boolean and nothing else.
type CanResponse struct {
	Allowed bool `json:"allowed"`
}

// CheckResponse reports the decision and the rules that produced it.
type CheckResponse struct {
	Allowed     bool            `json:"allowed"`
	Default     bool            `json:"default"`
	Specificity string          `json:"specificity,omitempty"`
	Matched     []*RuleResponse `json:"matched,omitempty"`
	Denial      string          `json:"denial,omitempty"`
}

func toCheckResponse(expl *acl.Explanation) *CheckResponse {
	resp := &CheckResponse{
		Allowed: expl.Allowed,
		Default: expl.Default,
		Matched: toRuleResponses(expl.Matched),
		Denial:  expl.Denial(),
	}
	if !expl.Default {
		resp.Specificity = expl.Specificity.String()
	}
	return resp
}
