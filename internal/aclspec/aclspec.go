// Package aclspec defines the ACL rule records managed by the warden
// admin API and consumed by the evaluation engine. A rule scopes a bot
// command permission to commands, channels and roles; empty scope sets
// mean "applies to all".
package aclspec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyRuleName     = errors.New("rule name cannot be empty")
	ErrInvalidModifier   = errors.New("invalid role modifier")
	ErrInvalidAction     = errors.New("invalid rule action")
	ErrDuplicateRuleName = errors.New("duplicate rule name")
)

// Modifier defines how a rule's role set combines with a subject's roles.
type Modifier string

const (
	// ModifierNone applies the rule only when the subject has none of the roles.
	ModifierNone Modifier = "NONE"
	// ModifierAny applies the rule when the subject has at least one of the roles.
	ModifierAny Modifier = "ANY"
	// ModifierAll applies the rule only when the subject has every role.
	ModifierAll Modifier = "ALL"
)

func (m Modifier) Valid() bool {
	switch m {
	case ModifierNone, ModifierAny, ModifierAll:
		return true
	}
	return false
}

// ParseModifier parses a modifier string, case-insensitively.
func ParseModifier(s string) (Modifier, error) {
	m := Modifier(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidModifier, s)
	}
	return m, nil
}

// Action is the effect of a rule when it applies.
type Action string

const (
	ActionEnabled  Action = "ENABLED"
	ActionDisabled Action = "DISABLED"
)

func (a Action) Valid() bool {
	switch a {
	case ActionEnabled, ActionDisabled:
		return true
	}
	return false
}

// ParseAction parses an action string, case-insensitively.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}
