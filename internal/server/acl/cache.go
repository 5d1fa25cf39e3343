package acl

import (
	"strings"
	"sync"
)

// decisionCache stores computed allow/deny decisions keyed by guild and
// context fingerprint. Any rule mutation invalidates the whole guild.
type decisionCache struct {
	index map[string]bool
	mu    sync.RWMutex
}

func newDecisionCache() *decisionCache {
	return &decisionCache{
		index: make(map[string]bool),
	}
}

func cacheKey(guild string, ctx *Context) string {
	return guild + "\x00" + ctx.Fingerprint()
}

// Get returns the cached decision for the key.
func (c *decisionCache) Get(key string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	allowed, ok := c.index[key]
	return allowed, ok
}

// Set stores the decision for the key.
func (c *decisionCache) Set(key string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index[key] = allowed
}

// DeleteGuild drops every cached decision for the guild and returns the
// number of entries removed.
func (c *decisionCache) DeleteGuild(guild string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := guild + "\x00"
	deleted := 0
	for k := range c.index {
		if strings.HasPrefix(k, prefix) {
			delete(c.index, k)
			deleted++
		}
	}
	return deleted
}

func (c *decisionCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.index)
}
