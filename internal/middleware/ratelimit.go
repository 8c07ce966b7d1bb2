package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/portfolio-api/internal/config"
	"github.com/iliyamo/portfolio-api/internal/logging"
)

// WindowCounter increments the hit counter for key in the current window and
// reports the new count and how long until the window resets.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

// The first hit of a window creates the key and starts its expiry, so
// the window is fixed from that hit rather than sliding.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return { count, ttl }
`)

// RedisWindowCounter keeps one counter key per client in Redis.
type RedisWindowCounter struct {
	rdb redis.Scripter
}

func NewRedisWindowCounter(rdb redis.Scripter) *RedisWindowCounter {
	return &RedisWindowCounter{rdb: rdb}
}

func (r *RedisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := fixedWindowScript.Run(ctx, r.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, redis.Nil
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// NewFixedWindow allows cfg.Max requests per cfg.Window for each key. With
// no counter, or when the counter fails, requests pass through unthrottled.
func NewFixedWindow(cfg config.RateLimitConfig, counter WindowCounter, log logging.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || counter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			ctx := c.Request().Context()

			count, resetIn, err := counter.Hit(ctx, key, cfg.Window)
			if err != nil {
				if cfg.Debug {
					log.Warn(ctx, "ratelimit: counter error", "key", key, "err", err)
				}
				return next(c)
			}

			remaining := int64(cfg.Max) - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Max) {
				secs := int(math.Ceil(resetIn.Seconds()))
				if secs < 0 {
					secs = 0
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					log.Info(ctx, "ratelimit: blocked", "key", key, "count", count)
				}
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     "too many requests, try again later",
					"retry_after": secs,
				})
			}

			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	switch strings.ToLower(cfg.KeyStrategy) {
	case "user":
		parts = append(parts, "user", rateUser(c))
	case "route":
		parts = append(parts, "route", route)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	default: // "ip"
		parts = append(parts, "ip", ip)
	}
	return strings.Join(parts, ":")
}

func rateUser(c echo.Context) string {
	if u := CurrentUser(c); u != "" {
		return u
	}
	return "anon"
}
