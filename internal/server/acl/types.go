package acl

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Context describes one command invocation: who (role set), where
// (channel and its parent category, if any) and what (command).
// It is supplied fresh for each evaluation and never persisted.
type Context struct {
	Roles    mapset.Set[string]
	Channel  string
	Command  string
	Category string // parent category of Channel, "" when none
}

// NewContext creates an invocation context for the given command, channel
// and subject roles.
func NewContext(command, channel string, roles ...string) *Context {
	return &Context{
		Roles:   mapset.NewSet(roles...),
		Channel: channel,
		Command: command,
	}
}

// WithCategory sets the parent category of the channel and returns the context.
func (c *Context) WithCategory(category string) *Context {
	c.Category = category
	return c
}

// Fingerprint returns a stable cache key for the context. Role order does
// not matter, so roles are sorted before joining.
func (c *Context) Fingerprint() string {
	roles := c.Roles.ToSlice()
	sort.Strings(roles)
	return strings.Join([]string{c.Command, c.Channel, c.Category, strings.Join(roles, ",")}, "\x00")
}
