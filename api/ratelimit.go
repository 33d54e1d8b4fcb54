package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// cooldown grants one action per key per window. It is process local and
// forgets everything on restart.
type cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func newCooldown(window time.Duration) *cooldown {
	return &cooldown{window: window, last: make(map[string]time.Time), now: time.Now}
}

// reserve claims the window for key. When the key is still cooling down it
// returns false and the time left.
func (c *cooldown) reserve(key string) (bool, time.Duration) {
	if c.window <= 0 {
		return true, 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if at, ok := c.last[key]; ok {
		if left := c.window - now.Sub(at); left > 0 {
			return false, left
		}
	}
	c.last[key] = now
	// drop stale entries while we hold the lock
	for k, at := range c.last {
		if now.Sub(at) >= c.window {
			delete(c.last, k)
		}
	}
	return true, 0
}

// release gives back a reservation whose action did not happen.
func (c *cooldown) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, key)
}

// clientKey is the client address without port. RealIP has already
// replaced RemoteAddr when the request came through a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
