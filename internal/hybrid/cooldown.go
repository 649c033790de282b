package hybrid

import (
	"sync"
	"time"
)

// CooldownTracker is the one piece of state shared across requests: a
// per-host suppression window written after a network-class failure. It is
// constructed once and injected into the client, never package-level, so
// tests get a fresh isolated instance.
type CooldownTracker struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Active reports whether the host is still inside its cooldown window.
// Expired entries are removed on the way out.
func (t *CooldownTracker) Active(host string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, ok := t.until[host]
	if !ok {
		return false
	}
	if t.now().After(until) {
		delete(t.until, host)
		return false
	}
	return true
}

// Trip suppresses the host for the given duration.
func (t *CooldownTracker) Trip(host string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until[host] = t.now().Add(d)
}
