package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storefront/internal/backend"
)

// SessionCookie identifies a browser; its value is the shopper id sent to the backend.
const SessionCookie = "sid"

// Session makes sure every request carries a shopper id.
func Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		c.Locals("shopper", sid)
		c.SetUserContext(backend.WithShopper(c.UserContext(), sid))
		return c.Next()
	}
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(SessionCookie)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

func shopper(c *fiber.Ctx) string {
	if s, ok := c.Locals("shopper").(string); ok && s != "" {
		return s
	}
	return ensureSID(c)
}
