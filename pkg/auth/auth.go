package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
)

// AdminAuth guards operational routes with the X-Admin-Secret header.
func AdminAuth() fiber.Handler {
	secret := env.MustGetEnvString("ADMIN_SECRET")
	return func(c *fiber.Ctx) error {
		provided := strings.TrimSpace(c.Get("X-Admin-Secret"))
		if provided == "" {
			return router.ResponseUnauthorized(c, "Missing X-Admin-Secret header")
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return router.ResponseUnauthorized(c, "Invalid admin secret")
		}
		return c.Next()
	}
}

// TenantAuth validates the Bearer token and binds its tenant claim to
// the route's tenant parameter, so a token for one tenant can never
// drive another tenant's session.
func TenantAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return router.ResponseUnauthorized(c, "Missing Bearer token")
		}

		claims, err := ValidateTenantToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return router.ResponseUnauthorized(c, "Invalid token: "+err.Error())
		}

		tenantID := c.Params("tenant_id")
		if tenantID != "" && claims.TenantID != tenantID {
			return router.ResponseUnauthorized(c, "Token is not valid for this tenant")
		}

		c.Locals("tenant_id", claims.TenantID)
		return c.Next()
	}
}
