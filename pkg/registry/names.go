package registry

import (
	"context"
	"sync"
)

// nameCache maps participant identifiers to resolved display names.
// Entries are populated lazily and never evicted for the lifetime of
// the session; unbounded growth on long-lived sessions is accepted.
type nameCache struct {
	mu    sync.Mutex
	names map[string]string
}

func newNameCache() *nameCache {
	return &nameCache{names: make(map[string]string)}
}

func (c *nameCache) get(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[id]
	return name, ok
}

func (c *nameCache) set(id string, name string) {
	c.mu.Lock()
	c.names[id] = name
	c.mu.Unlock()
}

// ResolveName returns a best-effort display name for a participant
// identifier. Resolution order: explicit name, push name, short name,
// verified name, bare numeric identifier, raw identifier. A failing
// engine lookup caches the numeric fallback permanently so repeated
// resolution of an unreachable identifier issues no further queries.
func (s *Session) ResolveName(ctx context.Context, participantID string) string {
	if name, ok := s.names.get(participantID); ok {
		return name
	}

	fallback := bareID(participantID)
	if fallback == "" {
		fallback = participantID
	}

	if s.client == nil {
		s.names.set(participantID, fallback)
		return fallback
	}

	contact, err := s.client.GetContactByID(ctx, participantID)
	if err != nil || contact == nil {
		s.names.set(participantID, fallback)
		return fallback
	}

	name := firstNonEmpty(contact.Name, contact.PushName, contact.ShortName, contact.VerifiedName, fallback)
	s.names.set(participantID, name)
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
