package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Limiter counts requests per key.
type Limiter interface {
	// Allow records one request for key and reports whether it fits the
	// limit, the requests left and when the budget is fully restored.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
	Config() RateLimitConfig
}

// RateLimiter handles rate limiting using Redis fixed windows.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.config
}

func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incr.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}

// LocalRateLimiter is a per-process token bucket limiter used when redis is
// not configured. Buckets that have refilled are dropped once per window, so
// the map only holds recently active keys.
type LocalRateLimiter struct {
	config    RateLimitConfig
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	lastSweep time.Time
}

func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{config: config, limiters: make(map[string]*rate.Limiter), lastSweep: time.Now()}
}

func (l *LocalRateLimiter) Config() RateLimitConfig {
	return l.config
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, int, time.Time, error) {
	if l.config.Limit <= 0 {
		return true, 0, time.Now(), nil
	}
	now := time.Now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.config.Window {
		l.sweep(now)
	}
	lim, ok := l.limiters[key]
	if !ok {
		every := rate.Every(l.config.Window / time.Duration(l.config.Limit))
		lim = rate.NewLimiter(every, l.config.Limit)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	allowed := lim.AllowN(now, 1)
	tokens := lim.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}
	missing := float64(l.config.Limit) - tokens
	reset := now.Add(time.Duration(missing / float64(lim.Limit()) * float64(time.Second)))
	return allowed, remaining, reset, nil
}

// sweep drops full buckets, which behave exactly like new ones. Callers hold
// l.mu.
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.config.Limit) {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

func (l *LocalRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RateLimit limits authenticated callers per user. Anonymous requests pass
// through; the handler decides whether they are allowed at all. name labels
// the limiter in metrics.
func RateLimit(name string, limiter Limiter) gin.HandlerFunc {
	cfg := limiter.Config()
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey)
		if !exists || cfg.Limit <= 0 {
			c.Next()
			return
		}

		allowed, remaining, resetTime, err := limiter.Allow(c.Request.Context(), fmt.Sprintf("%v", userID))
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Str("limiter", name).Msg("rate limit check failed")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			metrics.RecordRateLimited(name)
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail":      fmt.Sprintf("rate limit of %d requests per %v exceeded", cfg.Limit, cfg.Window),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// NewRecipeCreationLimiter limits recipe creation to perHour per user, in
// redis when a client is given and in process otherwise.
func NewRecipeCreationLimiter(redisClient *redis.Client, perHour int) Limiter {
	cfg := RateLimitConfig{
		Window:    time.Hour,
		Limit:     perHour,
		KeyPrefix: "rate_limit:recipe_creation",
	}
	if redisClient != nil {
		return NewRateLimiter(redisClient, cfg)
	}
	return NewLocalRateLimiter(cfg)
}
