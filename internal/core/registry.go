package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// members is the set of live connections bound to one identity.
type members map[*Client]struct{}

// Registry owns channel membership: identity -> live connections.
// It is the only shared mutable state of the realtime layer.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]members
	log      *zerolog.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{
		channels: make(map[string]members),
		log:      logger,
	}
}

// Join adds a client to the channel named identity. Returns true if newly added.
// Channels come into existence with their first member.
func (r *Registry) Join(identity string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[identity]
	if !ok {
		set = make(members)
		r.channels[identity] = set
	}
	if _, dup := set[c]; dup {
		return false
	}
	set[c] = struct{}{}
	return true
}

// Leave removes a client from the channel named identity. Empty channels are dropped.
func (r *Registry) Leave(identity string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.channels[identity]
	if !ok {
		return false
	}
	if _, bound := set[c]; !bound {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.channels, identity)
	}
	return true
}

// Publish delivers an event to every client bound to identity and returns the
// number of clients that received it. Publishing to an empty channel is a no-op.
// A client whose buffer is full misses the event; the publisher never waits.
func (r *Registry) Publish(identity string, event *Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for c := range r.channels[identity] {
		if c.deliver(event) {
			delivered++
			continue
		}
		r.log.Warn().Str("client_id", c.ID).Str("channel", identity).Msg("client buffer full, event dropped")
	}
	return delivered
}

// Count returns the number of clients bound to identity.
func (r *Registry) Count(identity string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.channels[identity])
}
