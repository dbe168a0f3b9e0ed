package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// globalLimiter caps total concurrent WebSocket connections per instance.
type globalLimiter struct {
	current atomic.Int64
	max     int64
}

func (l *globalLimiter) acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *globalLimiter) release() {
	l.current.Add(-1)
}

// ipLimiter caps concurrent connections per client IP.
type ipLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	maxPer int
}

func (l *ipLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.counts[ip] >= l.maxPer {
		return false
	}
	l.counts[ip]++
	return true
}

func (l *ipLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if count := l.counts[ip]; count > 0 {
		l.counts[ip] = count - 1
		if l.counts[ip] == 0 {
			delete(l.counts, ip)
		}
	}
}

// connRateLimiter token-buckets new connections per IP. Idle buckets are
// swept every cleanupEvery to keep the map bounded.
type connRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*rateEntry
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	cleanupEvery = 5 * time.Minute
	idleExpiry   = 10 * time.Minute
)

func (l *connRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.cleanupAt) {
		cutoff := now.Add(-idleExpiry)
		for ip, entry := range l.entries {
			if entry.lastSeen.Before(cutoff) {
				delete(l.entries, ip)
			}
		}
		l.cleanupAt = now.Add(cleanupEvery)
	}

	entry, ok := l.entries[ip]
	if !ok {
		entry = &rateEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// ConnectionLimits combines the global, per-IP, and rate limiters.
type ConnectionLimits struct {
	global *globalLimiter
	perIP  *ipLimiter
	rate   *connRateLimiter
}

func NewConnectionLimits(globalMax int64, perIPMax int, connectionsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		global: &globalLimiter{max: globalMax},
		perIP:  &ipLimiter{counts: make(map[string]int), maxPer: perIPMax},
		rate: &connRateLimiter{
			entries:   make(map[string]*rateEntry),
			rate:      rate.Limit(connectionsPerSecond),
			burst:     burst,
			cleanupAt: time.Now().Add(cleanupEvery),
		},
	}
}

// Acquire claims a slot against all three limits. On rejection it returns the
// limit that fired; already-claimed slots are rolled back.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	if !l.rate.allow(ip) {
		return false, LimitReasonRate
	}
	if !l.global.acquire() {
		return false, LimitReasonGlobal
	}
	if !l.perIP.acquire(ip) {
		l.global.release()
		return false, LimitReasonPerIP
	}
	return true, ""
}

func (l *ConnectionLimits) Release(ip string) {
	l.perIP.release(ip)
	l.global.release()
}

// UserRateLimiter token-buckets analyze requests per authenticated user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limiters: make(map[uuid.UUID]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *UserRateLimiter) Allow(userID uuid.UUID) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
