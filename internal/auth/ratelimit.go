package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// evictEvery is how many Allow calls pass between idle sweeps.
const evictEvery = 512

// defaultIdleTTL is how long an untouched key keeps its bucket.
const defaultIdleTTL = 10 * time.Minute

// PINLimiter applies a token bucket per client key to PIN attempts and
// periodically evicts idle keys.
//
// A nil *PINLimiter allows everything, which is how a disabled
// security.pin_rate_limit is represented.
type PINLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*limiterEntry
	hits  uint64
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewPINLimiter allows burst attempts at once per key, refilled at
// perMinute. It returns nil for non-positive arguments.
func NewPINLimiter(perMinute float64, burst int, idleTTL time.Duration) *PINLimiter {
	if perMinute <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &PINLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*limiterEntry),
	}
}

// Allow reports whether key may make one more attempt at now.
func (l *PINLimiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%evictEvery == 0 {
		l.evictLocked(now)
	}
	return allowed
}

// Len returns the number of tracked keys.
func (l *PINLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

func (l *PINLimiter) evictLocked(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}
