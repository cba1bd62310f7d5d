package resilience

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig configures a keyed token bucket limiter.
type LimiterConfig struct {
	// Rate is the number of tokens refilled per second for each key.
	// Default: 10
	Rate float64

	// Burst is the bucket size for each key.
	// Default: 20
	Burst int

	// IdleTTL is how long an untouched bucket is kept before eviction.
	// Default: 10 minutes
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one rate.Limiter per key, such as a client address. Idle
// keys are swept so the map does not grow with every address seen.
type Limiter struct {
	config LimiterConfig
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewLimiter creates a new keyed limiter.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = 20
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}

	return &Limiter{
		config:    config,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.config.Rate), l.config.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

// Keys returns the number of tracked keys.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.config.IdleTTL {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.config.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
