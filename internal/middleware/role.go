package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/models"
)

// RequireLogin redirects guests to the login page.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireRoles sends guests to /login and users with another role back to
// the project list.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	allowedSet := map[models.Role]bool{}
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		if !allowedSet[u.Role()] {
			return c.Redirect("/", fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireUser answers 401 instead of redirecting. Used in front of upgrades.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}
