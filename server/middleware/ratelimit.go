package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/todoapi/errors"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// RequestsPerMinute is the budget per key (default 60).
	RequestsPerMinute int
	// KeyFunc defaults to IPBasedKey.
	KeyFunc func(*gin.Context) string
	// Now defaults to time.Now.
	Now func() time.Time
}

// RateLimit rejects with 429 once a key has used its budget within the
// trailing minute.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	rl := &slidingWindow{
		hits:   make(map[string][]time.Time),
		limit:  cfg.RequestsPerMinute,
		window: time.Minute,
	}

	return func(c *gin.Context) {
		ok, retryAfter := rl.allow(cfg.KeyFunc(c), cfg.Now())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			abort(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys by client IP.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

type slidingWindow struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

func (w *slidingWindow) allow(key string, now time.Time) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-w.window)
	if now.Sub(w.lastSweep) > w.window {
		w.sweep(cutoff)
		w.lastSweep = now
	}

	recent := after(w.hits[key], cutoff)
	if len(recent) >= w.limit {
		w.hits[key] = recent
		return false, recent[0].Sub(cutoff)
	}
	w.hits[key] = append(recent, now)
	return true, 0
}

func (w *slidingWindow) sweep(cutoff time.Time) {
	for key, times := range w.hits {
		if recent := after(times, cutoff); len(recent) == 0 {
			delete(w.hits, key)
		} else {
			w.hits[key] = recent
		}
	}
}

// after returns the suffix of the ascending times that is later than cutoff.
func after(times []time.Time, cutoff time.Time) []time.Time {
	for i, t := range times {
		if t.After(cutoff) {
			return times[i:]
		}
	}
	return nil
}
