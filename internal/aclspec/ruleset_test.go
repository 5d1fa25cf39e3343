package aclspec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSetValidate(t *testing.T) {
	t.Run("rejects duplicate live names", func(t *testing.T) {
		set := NewRuleSet("g1",
			NewRule("mods", ModifierAll, ActionEnabled),
			NewRule("mods", ModifierAny, ActionDisabled),
		)
		assert.ErrorIs(t, set.Validate(), ErrDuplicateRuleName)
	})

	t.Run("deleted rules do not count towards uniqueness", func(t *testing.T) {
		old := NewRule("mods", ModifierAll, ActionEnabled)
		old.Deleted = true
		set := NewRuleSet("g1", old, NewRule("mods", ModifierAny, ActionDisabled))
		assert.NoError(t, set.Validate())
	})

	t.Run("propagates rule validation errors", func(t *testing.T) {
		set := NewRuleSet("g1", NewRule("", ModifierAny, ActionEnabled))
		assert.ErrorIs(t, set.Validate(), ErrEmptyRuleName)
	})
}

func TestRuleSetLiveRules(t *testing.T) {
	deleted := NewRule("gone", ModifierAny, ActionDisabled)
	deleted.Deleted = true
	set := NewRuleSet("g1", NewRule("live", ModifierAny, ActionEnabled), deleted)

	live := set.LiveRules()
	require.Len(t, live, 1)
	assert.Equal(t, "live", live[0].Name)
}

func TestRuleSetYAMLRoundTrip(t *testing.T) {
	set := NewRuleSet("g1",
		NewRule("mods-ban", ModifierAll, ActionEnabled).
			WithRoles("mod").
			WithCommands("ban", "kick"),
		NewRule("quiet-channel", ModifierAny, ActionDisabled).
			WithChannels("c1").
			WithError("commands are disabled here"),
	)

	var buf bytes.Buffer
	require.NoError(t, set.Save(&buf))

	loaded, err := LoadFromReader(&buf)
	require.NoError(t, err)

	require.Len(t, loaded.Rules, 2)
	assert.Equal(t, "g1", loaded.Guild)

	first := loaded.Rules[0]
	assert.Equal(t, set.Rules[0].ID, first.ID, "IDs survive the round trip")
	assert.Equal(t, "mods-ban", first.Name)
	assert.True(t, first.Commands.Contains("ban"))
	assert.True(t, first.Commands.Contains("kick"))
	assert.Equal(t, ModifierAll, first.Modifier)

	second := loaded.Rules[1]
	assert.Equal(t, ActionDisabled, second.Action)
	assert.Equal(t, "commands are disabled here", second.Error)
}

func TestLoadFromReader(t *testing.T) {
	t.Run("assigns IDs to rules without one", func(t *testing.T) {
		input := `
guild: g1
rules:
  - name: mods
    modifier: all
    action: enabled
    roles: [mod]
`
		set, err := LoadFromReader(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, set.Rules, 1)
		assert.NotEmpty(t, set.Rules[0].ID)
		assert.Equal(t, ModifierAll, set.Rules[0].Modifier)
	})

	t.Run("rejects unknown modifier", func(t *testing.T) {
		input := `
rules:
  - name: broken
    modifier: sometimes
    action: enabled
`
		_, err := LoadFromReader(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrInvalidModifier)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := LoadFromReader(strings.NewReader("rules: ["))
		assert.Error(t, err)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		input := `
rules:
  - name: same
    modifier: any
    action: enabled
  - name: same
    modifier: any
    action: disabled
`
		_, err := LoadFromReader(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrDuplicateRuleName)
	})
}
