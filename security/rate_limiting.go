package security

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client in fixed Redis windows.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Allow records one hit for key and reports whether it is within limit for
// the current window. The window starts at the first hit; the counter and
// its expiry are written in one MULTI so a key can never outlive its window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r == nil || r.redis == nil || limit <= 0 {
		return true, nil
	}

	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}

func clientKey(scope string, e *core.RequestEvent) string {
	if e.Auth != nil {
		return fmt.Sprintf("ratelimit:%s:user:%s", scope, e.Auth.Id)
	}
	return fmt.Sprintf("ratelimit:%s:ip:%s", scope, clientIP(e))
}

func clientIP(e *core.RequestEvent) string {
	// RealIP consults the app's trusted proxy settings.
	if e.App == nil {
		return e.RemoteIP()
	}
	return e.RealIP()
}

// Limit returns a route middleware allowing limit requests per window for
// each authenticated user, or each IP for anonymous callers. Redis errors
// let the request through.
func (r *RateLimiter) Limit(scope string, limit int, window time.Duration) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := clientKey(scope, e)

		allowed, err := r.Allow(e.Request.Context(), key, limit, window)
		if err != nil {
			slog.Warn("Rate limiter unavailable, allowing request", "scope", scope, "error", err)
		}
		if !allowed {
			return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
		}

		return e.Next()
	}
}

// BlockBots rejects requests whose User-Agent looks automated.
func (r *RateLimiter) BlockBots() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.Next()
	}
}

func isSuspiciousUserAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, pattern := range []string{"bot", "crawler", "spider", "scraper"} {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
