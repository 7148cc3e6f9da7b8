package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/teacher-portal/internal/config"
)

// LoginThrottle limits password-guessing on the login endpoint with a fixed
// window per client IP, counted in Redis. When throttling is disabled or
// Redis is unavailable the middleware degrades to a pass-through, matching
// how the rest of the app treats Redis as optional.
func LoginThrottle(cfg config.ThrottleConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodPost {
				return next(c)
			}
			key := fmt.Sprintf("%s:login:%s", cfg.Prefix, c.RealIP())
			ctx := c.Request().Context()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis down: let the request through rather than lock
				// everyone out.
				return next(c)
			}
			if n == 1 {
				if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
					// A counter without a window would throttle this IP
					// forever. Drop it and let the request through.
					rdb.Del(ctx, key)
					return next(c)
				}
			}
			if n > int64(cfg.Limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many login attempts, try again later"})
			}
			return next(c)
		}
	}
}
