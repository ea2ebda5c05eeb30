package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/fadilmartias/interview-proctor/internal/util"
	"github.com/gofiber/fiber/v2"
)

const (
	AdminTokenHeader    = "Authorization"
	WebhookSecretHeader = "x-vapi-secret"
	UserIDHeader        = "X-User-ID"
	UserIDLocal         = "userID"
)

// AdminOnly requires "Authorization: Bearer <token>". An empty token locks
// the routes entirely.
func AdminOnly(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		given := strings.TrimSpace(strings.TrimPrefix(c.Get(AdminTokenHeader), "Bearer "))
		if token == "" || !secureEqual(given, token) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "admin access required",
			})
		}
		return c.Next()
	}
}

// WebhookSecret checks the shared secret the voice provider sends. An
// empty secret disables the check.
func WebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		if !secureEqual(c.Get(WebhookSecretHeader), secret) {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "invalid webhook secret",
			})
		}
		return c.Next()
	}
}

// RequireUser stores the caller's user id from the identity provider in
// c.Locals.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(UserIDHeader))
		if userID == "" {
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusUnauthorized,
				Message: "please sign in",
			})
		}
		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
