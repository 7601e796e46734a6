package middleware

import (
	"wattshare-backend/internal/pkg/response"
	"wattshare-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	actorHeader = "X-Caller-Address"
	actorLocal  = "actor"
)

// Actor extracts the caller address from the X-Caller-Address header into
// Locals. Invalid addresses are treated as anonymous; RequireActor decides
// whether that matters per route.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		addr := c.Get(actorHeader)
		if validation.IsValidAddress(addr) {
			c.Locals(actorLocal, validation.NormalizeAddress(addr))
		}
		return c.Next()
	}
}

// RequireActor rejects requests without a valid caller address.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetActor(c) == "" {
			return response.Unauthorized(c, "A valid X-Caller-Address header is required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers other than the configured administrator.
func RequireAdmin(adminAddress string) fiber.Handler {
	admin := validation.NormalizeAddress(adminAddress)
	return func(c *fiber.Ctx) error {
		if admin == "" || GetActor(c) != admin {
			return response.Forbidden(c, "Administrator access required")
		}
		return c.Next()
	}
}

// GetActor returns the normalized caller address, or "" when anonymous.
func GetActor(c *fiber.Ctx) string {
	if addr, ok := c.Locals(actorLocal).(string); ok {
		return addr
	}
	return ""
}
