package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"storefront/internal/cartview"
	applog "storefront/internal/log"
	"storefront/web"
)

type AppOptions struct {
	// RateLimit is the per-IP request budget per minute; 0 uses 60.
	RateLimit int
	// AccessLog enables fiber's access log lines.
	AccessLog bool
}

// NewEngine loads the embedded page templates.
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(web.Templates(), ".html")
	engine.AddFunc("money", cartview.Money)
	return engine
}

// NewApp builds the storefront with its middleware chain and routes.
func NewApp(deps *Deps, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		Views: NewEngine(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			applog.Error(c, "server.error", err, map[string]any{"code": code})
			msg := "Something went wrong. Please try again."
			if code == fiber.StatusNotFound {
				msg = "Page not found"
			}
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg, "CartCount": 0, "Q": ""}); rerr != nil {
				return c.Status(code).SendString(msg)
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	rate := opts.RateLimit
	if rate <= 0 {
		rate = 60
	}
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/cart/events" || p == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.limit.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, retry soon")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"path": c.Path()})
			c.Status(fiber.StatusForbidden)
			return render(c, "notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))

	// ---------- Static assets ----------
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static(), MaxAge: 3600}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// ---------- App handlers ----------
	app.Use(Session())

	app.Get("/", deps.ShopHandler.Home)
	app.Get("/products/:id", deps.ProductHandler.Detail)

	app.Get("/cart", deps.CartHandler.View)
	app.Get("/cart/events", deps.CartHandler.Events)
	app.Post("/cart/add", deps.CartHandler.Add)
	app.Post("/cart/update", deps.CartHandler.Update)
	app.Post("/cart/remove", deps.CartHandler.Remove)

	app.Get("/checkout", deps.CheckoutHandler.Page)
	app.Post("/checkout", deps.CheckoutHandler.Place)
	app.Get("/thank-you", deps.CheckoutHandler.ThankYou)

	app.Use(func(c *fiber.Ctx) error {
		c.Status(fiber.StatusNotFound)
		return render(c, "notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}
