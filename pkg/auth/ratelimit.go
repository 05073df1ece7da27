package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per subject and tier in memory.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time

	mu        sync.Mutex
	counters  map[string]*window
	lastSweep time.Time
}

type window struct {
	count   int
	startAt time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// Tiers without an entry use defaultRPM; a limit <= 0 disables limiting.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		counters:   make(map[string]*window),
	}
}

// Allow returns ErrTooManyRequests once the identity exceeds its tier's
// requests per minute.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.ServiceTier
	if tier == "" {
		tier = "default"
	}

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.counters[key]
	if !ok || now.Sub(w.startAt) >= time.Minute {
		l.counters[key] = &window{count: 1, startAt: now}
		l.sweep(now)
		return nil
	}

	w.count++
	if w.count > rpm {
		return ErrTooManyRequests
	}
	return nil
}

// sweep drops expired windows, at most once per minute. Must be called
// with mu held.
func (l *InProcessLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for k, w := range l.counters {
		if now.Sub(w.startAt) >= time.Minute {
			delete(l.counters, k)
		}
	}
}
