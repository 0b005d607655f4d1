// Package ratelimit limits how often a client may change the proxy
// configuration through the API.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long an unused client limiter is kept.
const idleAfter = 10 * time.Minute

// Config holds rate limiter configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate per client. Zero disables
	// limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`

	// Burst is the number of requests a client may make at once.
	Burst int `yaml:"burst" json:"burst"`
}

// Enabled reports whether the configuration limits anything.
func (c Config) Enabled() bool {
	return c.RequestsPerSecond > 0
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter provides per-key rate limiting.
type Limiter struct {
	config  Config
	clients map[string]*client
	now     func() time.Time
	mu      sync.Mutex
}

// New creates a keyed limiter. A burst below one is raised to one.
func New(cfg Config) *Limiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Limiter{
		config:  cfg,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow consumes a token for key and reports whether the request may
// proceed. A disabled limiter allows everything.
func (l *Limiter) Allow(key string) bool {
	if !l.config.Enabled() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		l.pruneLocked(now)
		c = &client{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// pruneLocked drops clients that have been idle long enough to have
// refilled completely.
func (l *Limiter) pruneLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > idleAfter {
			delete(l.clients, key)
		}
	}
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
