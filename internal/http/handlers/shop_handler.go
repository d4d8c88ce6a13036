package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/cartview"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ShopHandler struct {
	Catalog *services.CatalogService
	Cart    *services.CartService
}

type productCard struct {
	Product   domain.Product
	Image     string
	CSRFToken string
	Back      string
}

func (h *ShopHandler) Home(c *fiber.Ctx) error {
	data := fiber.Map{"Title": "Shop", "CartCount": badge(c, h.Cart)}

	q := ""
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		var ok bool
		q, ok = validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "len": len(raw)})
			data["Alert"] = fmt.Sprintf("Enter a shorter search (up to %d characters).", validate.MaxQueryLen)
			data["Products"] = []productCard{}
			c.Status(fiber.StatusBadRequest)
			return render(c, "shop", data)
		}
	}
	data["Q"] = q

	state := services.PageState{}.Load()
	products, err := h.Catalog.Search(c.UserContext(), q)
	state = state.Done(err)
	if err != nil {
		log.Error(c, "shop.products.load", err, nil)
		data["Alert"] = state.Alert()
		data["Products"] = []productCard{}
		c.Status(statusFor(err))
		return render(c, "shop", data)
	}

	tok := csrfToken(c)
	back := c.OriginalURL()
	cards := make([]productCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard{Product: p, Image: cartview.Image(p), CSRFToken: tok, Back: back})
	}
	data["Products"] = cards
	return render(c, "shop", data)
}

// badge is the cart count shown in the header; a failed lookup shows none.
func badge(c *fiber.Ctx, cart *services.CartService) int {
	n, err := cart.Count(c.UserContext(), shopper(c))
	if err != nil {
		log.Error(c, "cart.badge.load", err, nil)
		return 0
	}
	return n
}
