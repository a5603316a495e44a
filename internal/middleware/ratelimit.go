package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// CallerRateLimit caps requests per caller (or client IP when unauthenticated)
// in fixed one-minute windows tracked in Redis. It fails open when Redis is
// unavailable.
func CallerRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 120
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		who := CallerFrom(c)
		if who == "" {
			who = "ip:" + c.IP()
		}
		window := time.Now().Unix() / 60
		key := "vault:rl:" + who + ":" + itoa(window)

		ctx := c.UserContext()
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, itoa(60-time.Now().Unix()%60))
			return fiber.NewError(http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}
		return c.Next()
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
