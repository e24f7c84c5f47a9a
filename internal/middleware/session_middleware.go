package middleware

import (
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "current_user"

// RequireSession is a Fiber middleware that resolves the session cookie
// to a live user and rejects the request with 401 otherwise. Tampered,
// malformed and orphaned tokens are indistinguishable to the client.
func RequireSession(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := authService.ResolveSession(c.Cookies("session"))
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
				"code":  "UNAUTHENTICATED",
			})
		}
		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireSession, or nil when
// the route did not pass through it.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
