package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	"storefront/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["CartCount"]; !ok {
		data["CartCount"] = 0
	}
	if _, ok := data["Q"]; !ok {
		data["Q"] = ""
	}
	data["CSRFToken"] = csrfToken(c)
	return c.Render(tmpl, data)
}

func csrfToken(c *fiber.Ctx) string {
	if tok, _ := c.Locals("csrf").(string); tok != "" {
		return tok
	}
	// Locals is empty when the middleware is skipped; the cookie holds the same token.
	return c.Cookies("csrf_")
}

// statusFor maps a service error to the page's HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, backend.ErrNotFound):
		return fiber.StatusNotFound
	case backend.IsTransport(err):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// localPath accepts only same-site paths as redirect targets.
func localPath(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return raw
}
