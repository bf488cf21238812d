package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	Allow(key string) bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryLimiter keeps one token bucket per key in memory.
// Buckets idle for longer than idleTTL are dropped.
type InMemoryLimiter struct {
	clients     map[string]*client
	mu          sync.Mutex
	r           rate.Limit // Rate of adding tokens (e.g., 1 token every 12 seconds)
	b           int        // Bucket size (e.g., 3 requests in a row)
	clock       clockwork.Clock
	idleTTL     time.Duration
	lastCleanup time.Time
}

// NewInMemoryLimiter creates a new rate limiter
// Example: NewInMemoryLimiter(5, time.Minute, 3, clock) -> 5 requests per minute, burst of 3
func NewInMemoryLimiter(requests int, per time.Duration, burst int, clock clockwork.Clock) *InMemoryLimiter {
	if burst < 1 {
		burst = 1
	}
	return &InMemoryLimiter{
		clients:     make(map[string]*client),
		r:           rate.Every(per / time.Duration(requests)),
		b:           burst,
		clock:       clock,
		idleTTL:     10 * per,
		lastCleanup: clock.Now(),
	}
}

var _ Limiter = (*InMemoryLimiter)(nil)

// Allow checks if key is allowed to perform one more request now
func (l *InMemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.lastCleanup) > l.idleTTL {
		l.cleanup(now)
	}

	c, exists := l.clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

func (l *InMemoryLimiter) cleanup(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
	l.lastCleanup = now
}

// Len reports the number of tracked keys.
func (l *InMemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
