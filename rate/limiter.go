// Package rate provides a keyed token-bucket limiter. The API throttles
// receipt uploads per user with it, so one client retrying in a loop cannot
// drown the review queue.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per key. Buckets idle longer than Expiry
// minutes are dropped to keep the map bounded.
type Limiter struct {
	Expiry   int
	Burst    int
	LimitRPS float64

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewLimiter(burst int, expiry int, limitRPS float64) *Limiter {
	lm := &Limiter{
		Expiry:   expiry,
		Burst:    burst,
		LimitRPS: limitRPS,
		buckets:  make(map[string]*bucket),
	}
	go lm.evict()
	return lm
}

// Check reports whether the request identified by key may proceed, creating
// the bucket on first sight.
func (l *Limiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst)}
		l.buckets[key] = b
	}
	b.lastAccess = time.Now()

	return b.limiter.Allow()
}

func (l *Limiter) evict() {
	expiry := time.Duration(l.Expiry) * time.Minute

	for range time.Tick(time.Minute) {
		l.mu.Lock()
		for key, b := range l.buckets {
			if time.Since(b.lastAccess) > expiry {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts a per-event interval into the RPS value NewLimiter takes.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
