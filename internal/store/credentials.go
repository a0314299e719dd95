package store

import "sync"

// Credentials is the in-memory copy of the persisted bearer token.
// The refresher and the API client read it on every cycle, so a token
// change takes effect without restarting the process.
type Credentials struct {
	mu     sync.RWMutex
	bearer string
}

// NewCredentials seeds the holder, typically from Store.Token at boot.
func NewCredentials(bearer string) *Credentials {
	return &Credentials{bearer: bearer}
}

// Get returns the current bearer token, or "" when none is set.
func (c *Credentials) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearer
}

// Set replaces the current bearer token.
func (c *Credentials) Set(bearer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bearer = bearer
}
