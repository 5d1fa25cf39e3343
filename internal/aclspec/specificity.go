package aclspec

import "fmt"

// Specificity is the 4-component ranking key derived from a rule's scope.
// Components, in strict priority order:
//
//	S0: role count when the modifier is NONE
//	S1: role count when the modifier is ALL
//	S2: 1 when the modifier is ANY and the rule names at least one role
//	S3: channel/command scope bits (channel-scoped = 2, command-scoped = 1)
//
// ANY is deliberately flat at 0/1: naming more roles under "any of" does
// not make a rule more specific, unlike NONE and ALL where it does.
// Comparison is lexicographic, not a weighted sum. A rule with a higher S0
// outranks any rule with a lower S0 no matter the remaining components.
type Specificity [4]int

// Specificity computes the ranking key for the rule. It is derived on
// demand and carries no state of its own.
func (r *Rule) Specificity() Specificity {
	var s Specificity

	roles := r.Roles.Cardinality()
	switch r.Modifier {
	case ModifierNone:
		s[0] = roles
	case ModifierAll:
		s[1] = roles
	case ModifierAny:
		if roles > 0 {
			s[2] = 1
		}
	}

	if r.Channels.Cardinality() > 0 {
		s[3] += 2
	}
	if r.Commands.Cardinality() > 0 {
		s[3]++
	}

	return s
}

// Compare orders specificities lexicographically. It returns a negative
// value when s ranks below other, zero when equal, positive when above.
func (s Specificity) Compare(other Specificity) int {
	for i := range s {
		if s[i] != other[i] {
			if s[i] > other[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func (s Specificity) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", s[0], s[1], s[2], s[3])
}
