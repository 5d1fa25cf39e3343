package aclspec

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Rule represents a single access control record.
// Commands, Channels and Roles scope the rule; an empty set means the rule
// is not scoped by that dimension. Modifier controls how Roles combine with
// a subject's role set, Action is the effect when the rule applies.
// ID is the stable identity used for edits, never the position in a list.
type Rule struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Commands mapset.Set[string] `json:"commands"`
	Channels mapset.Set[string] `json:"channels"`
	Roles    mapset.Set[string] `json:"roles"`
	Modifier Modifier           `json:"modifier"`
	Action   Action             `json:"action"`
	Error    string             `json:"error,omitempty"`
	Deleted  bool               `json:"deleted,omitempty"`
}

// NewRule creates a new Rule with a fresh ID, empty scope sets and the
// provided modifier and action.
func NewRule(name string, modifier Modifier, action Action) *Rule {
	return &Rule{
		ID:       uuid.NewString(),
		Name:     name,
		Commands: mapset.NewSet[string](),
		Channels: mapset.NewSet[string](),
		Roles:    mapset.NewSet[string](),
		Modifier: modifier,
		Action:   action,
	}
}

// WithCommands sets the command scope and returns the rule.
func (r *Rule) WithCommands(commands ...string) *Rule {
	r.Commands = mapset.NewSet(commands...)
	return r
}

// WithChannels sets the channel scope (channel IDs and/or category IDs)
// and returns the rule.
func (r *Rule) WithChannels(channels ...string) *Rule {
	r.Channels = mapset.NewSet(channels...)
	return r
}

// WithRoles sets the role scope and returns the rule.
func (r *Rule) WithRoles(roles ...string) *Rule {
	r.Roles = mapset.NewSet(roles...)
	return r
}

// WithError sets the denial message shown to the end user.
func (r *Rule) WithError(msg string) *Rule {
	r.Error = msg
	return r
}

// Validate checks the rule's fields against their closed domains.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyRuleName
	}
	if !r.Modifier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidModifier, r.Modifier)
	}
	if !r.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, r.Action)
	}
	return nil
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() *Rule {
	clone := *r
	clone.Commands = r.Commands.Clone()
	clone.Channels = r.Channels.Clone()
	clone.Roles = r.Roles.Clone()
	return &clone
}

func (r *Rule) String() string {
	return fmt.Sprintf("Rule<%s %s %s spec=%s>", r.Name, r.Modifier, r.Action, r.Specificity())
}

// ruleYAML is the serialized form of a Rule. Scope sets are flattened to
// string lists so rule files stay hand-editable.
type ruleYAML struct {
	ID       string   `yaml:"id,omitempty"`
	Name     string   `yaml:"name"`
	Commands []string `yaml:"commands,omitempty"`
	Channels []string `yaml:"channels,omitempty"`
	Roles    []string `yaml:"roles,omitempty"`
	Modifier string   `yaml:"modifier"`
	Action   string   `yaml:"action"`
	Error    string   `yaml:"error,omitempty"`
}

func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	var aux ruleYAML
	if err := value.Decode(&aux); err != nil {
		return err
	}

	modifier, err := ParseModifier(aux.Modifier)
	if err != nil {
		return fmt.Errorf("rule %q: %w", aux.Name, err)
	}
	action, err := ParseAction(aux.Action)
	if err != nil {
		return fmt.Errorf("rule %q: %w", aux.Name, err)
	}

	r.ID = aux.ID
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Name = aux.Name
	r.Commands = mapset.NewSet(aux.Commands...)
	r.Channels = mapset.NewSet(aux.Channels...)
	r.Roles = mapset.NewSet(aux.Roles...)
	r.Modifier = modifier
	r.Action = action
	r.Error = aux.Error
	return nil
}

func (r Rule) MarshalYAML() (interface{}, error) {
	return ruleYAML{
		ID:       r.ID,
		Name:     r.Name,
		Commands: sortedSlice(r.Commands),
		Channels: sortedSlice(r.Channels),
		Roles:    sortedSlice(r.Roles),
		Modifier: string(r.Modifier),
		Action:   string(r.Action),
		Error:    r.Error,
	}, nil
}

// sortedSlice flattens a set to a sorted slice for stable serialized output.
func sortedSlice(set mapset.Set[string]) []string {
	if set == nil || set.Cardinality() == 0 {
		return nil
	}
	values := set.ToSlice()
	sort.Strings(values)
	return values
}
