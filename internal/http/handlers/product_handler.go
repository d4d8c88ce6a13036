package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	"storefront/internal/cartview"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Cart    *services.CartService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		c.Status(fiber.StatusNotFound)
		return render(c, "notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), domain.ProductID(id))
	if errors.Is(err, backend.ErrNotFound) {
		c.Status(fiber.StatusNotFound)
		return render(c, "notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	if err != nil {
		log.Error(c, "product.load", err, map[string]any{"product_id": id})
		c.Status(statusFor(err))
		return render(c, "notfound", fiber.Map{"Message": services.Alert(err)})
	}
	return render(c, "product", fiber.Map{
		"Title":     p.Name,
		"P":         p,
		"Image":     cartview.Image(p),
		"CartCount": badge(c, h.Cart),
	})
}
