package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/cache"
	"github.com/eventup/api/internal/model"
)

// RateLimiter is a per-key token bucket kept in process memory. RateLimit
// falls back to it when the shared store cannot be reached.
//
// Each key holds up to rate+burst tokens and regains rate tokens per window,
// continuously. Keys idle for two windows are swept on a later call.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rate      int
	window    time.Duration
	burst     int
	sweepEach time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Rate    int           // Requests per window (default 100)
	Window  time.Duration // Time window (default 1 minute)
	Burst   int           // Extra requests above Rate (default 20)
	Cleanup time.Duration // How often idle keys are swept (default 5 minutes)
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 5 * time.Minute
	}
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		rate:      cfg.Rate,
		window:    cfg.Window,
		burst:     cfg.Burst,
		sweepEach: cfg.Cleanup,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *RateLimiter) capacity() float64 {
	return float64(rl.rate + rl.burst)
}

// perToken is the time it takes to regain one token
func (rl *RateLimiter) perToken() time.Duration {
	return rl.window / time.Duration(rl.rate)
}

// Allow takes one token for key. It reports the tokens left and when the
// next token becomes available.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, resetTime time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.sweepEach {
		rl.sweep(now)
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity(), seen: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.seen)
	b.tokens = math.Min(rl.capacity(), b.tokens+float64(rl.rate)*elapsed.Seconds()/rl.window.Seconds())
	b.seen = now

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) * float64(rl.perToken()))
		return false, 0, now.Add(wait)
	}
	b.tokens--
	return true, int(b.tokens), now.Add(rl.perToken())
}

// sweep drops keys that have been idle for two windows; the caller holds mu
func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * rl.window)
	for key, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

// Rate returns the requests allowed per window
func (rl *RateLimiter) Rate() int {
	return rl.rate
}

// RateLimit applies a fixed window per client in the shared store. When the
// store fails the local token bucket decides instead.
func RateLimit(store cache.Store, local *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		// Get rate limit key (user ID if authenticated, otherwise IP)
		key := GetUserID(c)
		if key == "" {
			key = c.ClientIP()
		}

		var (
			allowed   bool
			remaining int
			resetTime time.Time
		)
		res, err := store.Allow(c.Request.Context(), key, local.rate, local.window)
		if err != nil {
			logger.Warn("rate limit store unavailable, using local limiter", zap.Error(err))
			allowed, remaining, resetTime = local.Allow(key)
		} else {
			allowed, remaining, resetTime = res.Allowed, res.Remaining, time.Now().Add(res.ResetIn)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(local.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			abort(c, model.NewRateLimitError(retryAfter))
			return
		}
		c.Next()
	}
}
