package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/cartstore"
	"storefront/internal/cartview"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CheckoutHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
	Store *cartstore.Store
}

// Page re-fetches the cart and re-derives the total.
func (h *CheckoutHandler) Page(c *fiber.Ctx) error {
	state := services.PageState{}.Load()
	sum, err := h.Cart.View(c.UserContext(), shopper(c))
	if state = state.Done(err); err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return h.renderForm(c, state, "", statusFor(err))
	}
	return render(c, "checkout", fiber.Map{"Title": "Checkout", "Cart": sum, "CartCount": sum.Count})
}

func (h *CheckoutHandler) Place(c *fiber.Ctx) error {
	email := c.FormValue("email")

	state := services.PageState{}.Mutate()
	receipt, err := h.Order.Checkout(c.UserContext(), shopper(c), email)
	if state = state.Done(err); err != nil {
		if errors.Is(err, services.ErrValidation) {
			applog.Security(c, "validation.fail", map[string]any{"field": "checkout", "reason": err.Error()})
		} else {
			applog.Error(c, "order.place.fail", err, nil)
		}
		return h.renderForm(c, state, email, statusFor(err))
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": receipt.OrderID,
		"total":    cartview.Money(receipt.Total),
	})
	return c.Redirect("/thank-you?order=" + url.QueryEscape(receipt.OrderID))
}

// renderForm re-renders checkout with a blocking alert over the last known cart.
func (h *CheckoutHandler) renderForm(c *fiber.Ctx, state services.PageState, email string, status int) error {
	prev, _ := h.Store.Snapshot(c.UserContext(), shopper(c))
	sum := cartview.Summarize(prev)
	c.Status(status)
	return render(c, "checkout", fiber.Map{
		"Title":     "Checkout",
		"Cart":      sum,
		"CartCount": sum.Count,
		"Email":     email,
		"Alert":     state.Alert(),
	})
}

func (h *CheckoutHandler) ThankYou(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.Query("order"))
	if !ok {
		orderID = ""
	}
	return render(c, "thank_you", fiber.Map{"Title": "Thank you", "OrderID": orderID})
}
