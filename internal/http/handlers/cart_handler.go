package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"storefront/internal/cartstore"
	"storefront/internal/cartview"
	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Cart  *services.CartService
	Store *cartstore.Store

	// Heartbeat is the idle interval between keep-alive comments on the event stream.
	Heartbeat time.Duration
	// StreamLimit closes the event stream after that many events; 0 keeps it open.
	StreamLimit int
}

// View renders the cart popup from a fresh backend read.
func (h *CartHandler) View(c *fiber.Ctx) error {
	state := services.PageState{}.Load()
	sum, err := h.Cart.View(c.UserContext(), shopper(c))
	if state = state.Done(err); err != nil {
		log.Error(c, "cart.load", err, nil)
		return h.renderPopup(c, state, statusFor(err))
	}
	return render(c, "cart_popup", fiber.Map{
		"Title":     "Cart",
		"Cart":      sum,
		"CartCount": sum.Count,
		"Back":      localPath(c.Get(fiber.HeaderReferer), "/"),
	})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))

	state := services.PageState{}.Mutate()
	_, err := h.Cart.Add(c.UserContext(), shopper(c), domain.ProductID(id), qty)
	if state = state.Done(err); err != nil {
		log.Error(c, "cart.add.fail", err, map[string]any{"product_id": id})
		return h.renderPopup(c, state, statusFor(err))
	}
	log.Audit(c, "cart.add", map[string]any{"product_id": id, "qty": qty})
	return c.Redirect(localPath(c.FormValue("redirect"), "/"))
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty, ok := validate.SetQty(c.FormValue("qty"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid quantity")
	}

	state := services.PageState{}.Mutate()
	_, err := h.Cart.Update(c.UserContext(), shopper(c), domain.ProductID(id), qty)
	if state = state.Done(err); err != nil {
		log.Error(c, "cart.update.fail", err, map[string]any{"product_id": id, "qty": qty})
		return h.renderPopup(c, state, statusFor(err))
	}
	log.Audit(c, "cart.update", map[string]any{"product_id": id, "qty": qty})
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}

	state := services.PageState{}.Mutate()
	_, err := h.Cart.Remove(c.UserContext(), shopper(c), domain.ProductID(id))
	if state = state.Done(err); err != nil {
		log.Error(c, "cart.remove.fail", err, map[string]any{"product_id": id})
		return h.renderPopup(c, state, statusFor(err))
	}
	log.Audit(c, "cart.remove", map[string]any{"product_id": id})
	return c.Redirect("/cart")
}

// renderPopup shows the alert over the last snapshot the shopper saw.
func (h *CartHandler) renderPopup(c *fiber.Ctx, state services.PageState, status int) error {
	prev, _ := h.Store.Snapshot(c.UserContext(), shopper(c))
	sum := cartview.Summarize(prev)
	c.Status(status)
	return render(c, "cart_popup", fiber.Map{
		"Title":     "Cart",
		"Cart":      sum,
		"CartCount": sum.Count,
		"Alert":     state.Alert(),
		"Back":      "/",
	})
}

type badgeEvent struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

func newBadgeEvent(c domain.Cart) badgeEvent {
	return badgeEvent{Count: cartview.ItemCount(c), Total: cartview.Money(cartview.Total(c))}
}

// Events streams the shopper's cart badge as server-sent events, one "cart"
// event per applied snapshot.
func (h *CartHandler) Events(c *fiber.Ctx) error {
	sid := shopper(c)
	first, ok := h.Store.Snapshot(c.UserContext(), sid)
	if !ok {
		var err error
		if first, err = h.Store.Load(c.UserContext(), sid); err != nil {
			log.Error(c, "cart.events.load", err, nil)
			first = domain.Cart{}
		}
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// Buffered by one: a slow client only ever gets the newest snapshot.
	updates := make(chan badgeEvent, 1)
	cancel := h.Store.Subscribe(sid, func(cart domain.Cart) {
		ev := newBadgeEvent(cart)
		for {
			select {
			case updates <- ev:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	limit := h.StreamLimit

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		sent := 0
		if writeEvent(w, newBadgeEvent(first)) != nil {
			return
		}
		sent++
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		for limit == 0 || sent < limit {
			select {
			case ev := <-updates:
				if writeEvent(w, ev) != nil {
					return
				}
				sent++
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev badgeEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", b); err != nil {
		return err
	}
	return w.Flush()
}
