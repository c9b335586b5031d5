package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/xin-kz910/SE-project/internal/models"
	"github.com/xin-kz910/SE-project/internal/session"
	"github.com/xin-kz910/SE-project/internal/utils"
	"github.com/xin-kz910/SE-project/pkg/logger"
)

const (
	localUser = "user"
	localUID  = "uid"
)

// LoadSession decodes the jm_token cookie. A missing or bad token leaves the
// request anonymous; routes that need a user add RequireLogin or RequireRoles.
func LoadSession(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(utils.CookieName)
		if tokenStr == "" {
			return c.Next()
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			logger.Debug().Err(err).Str("request_id", logger.RequestID(c)).Msg("session token rejected")
			return c.Next()
		}

		u, err := session.New(claims.UserID, claims.Username, models.Role(claims.Role))
		if err != nil {
			return c.Next()
		}

		c.Locals(localUser, u)
		c.Locals(localUID, u.ID())
		return c.Next()
	}
}

// CurrentUser returns the session user, or nil for guests.
func CurrentUser(c *fiber.Ctx) *session.User {
	u, _ := c.Locals(localUser).(*session.User)
	return u
}
