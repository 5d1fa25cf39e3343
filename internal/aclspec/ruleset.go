package aclspec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// RuleSet is a collection of rules for one guild, used for YAML
// import/export of a guild's ACL configuration.
type RuleSet struct {
	Guild string  `yaml:"guild,omitempty"`
	Rules []*Rule `yaml:"rules,omitempty"`
}

// NewRuleSet creates a new RuleSet for the given guild with the initial rules.
func NewRuleSet(guild string, rules ...*Rule) *RuleSet {
	return &RuleSet{
		Guild: guild,
		Rules: rules,
	}
}

// LiveRules returns the rules that have not been soft-deleted. Only these
// participate in evaluation and name-uniqueness checks.
func (r *RuleSet) LiveRules() []*Rule {
	live := make([]*Rule, 0, len(r.Rules))
	for _, rule := range r.Rules {
		if !rule.Deleted {
			live = append(live, rule)
		}
	}
	return live
}

// Validate checks every rule and rejects duplicate names among live rules.
func (r *RuleSet) Validate() error {
	seen := make(map[string]struct{}, len(r.Rules))
	for _, rule := range r.Rules {
		if err := rule.Validate(); err != nil {
			return err
		}
		if rule.Deleted {
			continue
		}
		if _, ok := seen[rule.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateRuleName, rule.Name)
		}
		seen[rule.Name] = struct{}{}
	}
	return nil
}

// LoadFromReader creates a RuleSet by parsing YAML content from the reader.
func LoadFromReader(reader io.Reader) (*RuleSet, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var ruleset RuleSet
	if err := yaml.Unmarshal(data, &ruleset); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset: %w", err)
	}

	if err := ruleset.Validate(); err != nil {
		return nil, err
	}
	return &ruleset, nil
}

// Save writes the RuleSet to the writer as YAML.
func (r *RuleSet) Save(writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)

	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to marshal ruleset to YAML: %w", err)
	}

	return encoder.Close()
}
