package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
)

// HttpCacheInMemory caches GET responses. Event streams, QR pages and
// session state must stay uncached: a pairing round moves faster than
// the cache TTL.
func HttpCacheInMemory(ttl int) fiber.Handler {
	if ttl <= 0 {
		ttl = 5
	}
	return cache.New(cache.Config{
		Next: func(c *fiber.Ctx) bool {
			if c.Method() != fiber.MethodGet {
				return true
			}
			return cacheSkipPath(c.Path())
		},
		Expiration: time.Duration(ttl) * time.Second,
	})
}

func cacheSkipPath(path string) bool {
	return strings.HasSuffix(path, "/events") ||
		strings.HasSuffix(path, "/qr") ||
		strings.HasSuffix(path, "/session")
}
