// file: internal/middleware/rate_limiter.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/contextutils"
	"ecotrack/internal/response"

	"go.uber.org/zap"
)

// RateLimitResult is the outcome of one limit check
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// KeyFunc picks the subject a limit is counted against
type KeyFunc func(r *http.Request) string

// KeyByUserOrIP counts authenticated callers by user id and everyone else by IP
func KeyByUserOrIP(r *http.Request) string {
	if userID := contextutils.GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return "ip:" + ClientIP(r)
}

// RateLimiter counts requests in fixed windows stored in the cache, so
// limits are shared between instances when the cache is Redis.
type RateLimiter struct {
	cache  cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(c cache.Cache, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{cache: c, logger: logger, now: time.Now}
}

// Limit allows limit requests per window for each key. Cache failures let the
// request through.
func (rl *RateLimiter) Limit(name string, limit int, window time.Duration, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = KeyByUserOrIP
	}
	return func(next http.Handler) http.Handler {
		if limit <= 0 || rl.cache == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := rl.check(r.Context(), name, keyFn(r), limit, window)
			if err != nil {
				rl.logger.Warn("Rate limit check failed, allowing request",
					zap.String("limit", name),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			writeRateLimitHeaders(w, result)
			if !result.Allowed {
				GetRequestLogger(r.Context()).Warn("Rate limit exceeded",
					zap.String("limit", name),
					zap.Int("max", result.Limit),
					zap.Duration("retry_after", result.RetryAfter))
				if rejected, ok := r.Context().Value(rateLimitResponderKey).(func(http.ResponseWriter, *http.Request)); ok {
					rejected(w, r)
					return
				}
				response.QuickTooManyRequests(w, r, result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// check increments the counter for the current window
func (rl *RateLimiter) check(ctx context.Context, name, subject string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := rl.now()
	windowStart := now.Truncate(window)
	reset := windowStart.Add(window)
	key := fmt.Sprintf("rate_limit:%s:%s:%d", name, subject, windowStart.Unix())

	count, err := rl.cache.Increment(ctx, key, 1)
	if err != nil {
		return nil, err
	}
	if count == 1 {
		if err := rl.cache.SetTTL(ctx, key, window); err != nil {
			rl.logger.Debug("Failed to set rate limit TTL", zap.String("key", key), zap.Error(err))
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:    int(count) <= limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetTime:  reset,
		RetryAfter: reset.Sub(now),
	}, nil
}

func writeRateLimitHeaders(w http.ResponseWriter, result *RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))
}

const rateLimitResponderKey contextKey = "rate_limit_responder"

// WithRateLimitResponder overrides the 429 body for routes that answer
// outside the envelope
func WithRateLimitResponder(fn func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), rateLimitResponderKey, fn)))
		})
	}
}
