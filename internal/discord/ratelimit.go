// Package discord – per-user rate limiting
//
// This file implements a lightweight, in-memory, token-bucket rate limiter
// with per-user buckets and opportunistic garbage collection. It throttles
// the user-facing actions (request form, stimulus claim) so a single account
// cannot flood the request forum or the review channel.
//
// The limiter is process-local, which matches the bot's single-process
// deployment; it is abuse control, not an authorization mechanism.
package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitor holds a single rate limiter and the last time it was seen.
// Used to opportunistically evict idle buckets.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiter implements a per-user token-bucket rate limiter. Buckets are
// created on demand and stored in a map guarded by a mutex; idle buckets are
// evicted after a TTL via opportunistic cleanup during lookups. Safe for
// concurrent use.
type userLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// newUserLimiter constructs a limiter with the given tokens-per-second and
// burst size. burst values <= 0 are coerced to 1.
func newUserLimiter(rps float64, burst int) *userLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &userLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute, // evict idle entries after TTL
	}
}

// Allow reports whether userID may perform another rate-limited action now,
// consuming a token when it may.
func (l *userLimiter) Allow(userID string) bool {
	now := time.Now()

	l.mu.Lock()
	// Opportunistic cleanup after a threshold of lookups. Run it BEFORE
	// touching the requested visitor so an old bucket can be evicted even
	// when it is the one being fetched.
	l.cleanupN++
	if l.cleanupN >= 5000 {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) >= l.ttl {
				delete(l.visitors, k)
			}
		}
		l.cleanupN = 0
	}

	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[userID] = v
	}
	v.lastSeen = now
	lim := v.limiter
	l.mu.Unlock()

	return lim.Allow()
}
