package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterSweepInterval is how often idle client buckets are evicted.
	limiterSweepInterval = time.Minute
	// limiterIdleAfter is how long a client must stay silent before its
	// bucket is dropped.
	limiterIdleAfter = 10 * time.Minute
)

// perMinute converts a requests-per-minute figure to a rate.Limit.
func perMinute(n float64) rate.Limit {
	return rate.Limit(n / 60)
}

// ipLimiter keeps one token bucket per client IP. Buckets are created
// on first sight and evicted after limiterIdleAfter of silence so the
// map stays bounded by the active client set.
type ipLimiter struct {
	mu    sync.Mutex
	ips   map[string]*ipBucket
	rate  rate.Limit
	burst int
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(r rate.Limit, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		ips:   make(map[string]*ipBucket),
		rate:  r,
		burst: burst,
	}
}

// allow reports whether the given IP may proceed right now.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	b, ok := l.ips[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.ips[ip] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

// sweep drops buckets idle for longer than idleAfter and returns how
// many were evicted.
func (l *ipLimiter) sweep(idleAfter time.Duration) int {
	cutoff := time.Now().Add(-idleAfter)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for ip, b := range l.ips {
		if b.lastSeen.Before(cutoff) {
			delete(l.ips, ip)
			evicted++
		}
	}
	return evicted
}

// evictLoop sweeps periodically until ctx is cancelled.
func (l *ipLimiter) evictLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep(limiterIdleAfter)
		}
	}
}

// size returns the tracked client count.
func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}
