package backend

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
)

// RestSession talks to the REST contract that scopes carts by the sid session cookie.
type RestSession struct {
	c *restClient
}

func NewRestSession(baseURL string, timeout time.Duration) *RestSession {
	return &RestSession{c: newRestClient("rest-session", baseURL, timeout)}
}

func (b *RestSession) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := b.c.do(ctx, call{op: "list products", method: fiber.MethodGet, path: "/products"}, &out)
	return out, err
}

func (b *RestSession) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var p domain.Product
	if err := b.c.do(ctx, call{op: "get product", method: fiber.MethodGet, path: "/products/" + url.PathEscape(string(id))}, &p); err != nil {
		return domain.Product{}, err
	}
	if p.ID == "" {
		return domain.Product{}, notFound("get product")
	}
	return p, nil
}

func (b *RestSession) GetCart(ctx context.Context) (domain.Cart, error) {
	return b.cartCall(ctx, call{op: "get cart", method: fiber.MethodGet, path: "/cart"})
}

func (b *RestSession) AddToCart(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error) {
	return b.cartCall(ctx, call{
		op: "add to cart", method: fiber.MethodPost, path: "/cart/add",
		body: map[string]any{"productId": wireID(id), "quantity": quantity},
	})
}

func (b *RestSession) UpdateQuantity(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error) {
	return b.cartCall(ctx, call{
		op: "update quantity", method: fiber.MethodPut, path: "/cart/update",
		body: map[string]any{"productId": wireID(id), "quantity": quantity},
	})
}

func (b *RestSession) RemoveFromCart(ctx context.Context, id domain.ProductID) (domain.Cart, error) {
	cart, err := b.cartCall(ctx, call{
		op: "remove from cart", method: fiber.MethodDelete, path: "/cart/remove",
		body: map[string]any{"productId": wireID(id)},
	})
	if isNotFound(err) {
		return b.GetCart(ctx)
	}
	return cart, err
}

func (b *RestSession) CreateOrder(ctx context.Context, o domain.Order) (string, error) {
	var out wireOrder
	rc := call{
		op: "create order", method: fiber.MethodPost, path: "/orders",
		body: map[string]any{"email": o.Email, "items": wireItems(o)},
		sid:  Shopper(ctx),
	}
	if err := b.c.do(ctx, rc, &out); err != nil {
		return "", err
	}
	return out.id(), nil
}

func (b *RestSession) cartCall(ctx context.Context, rc call) (domain.Cart, error) {
	rc.sid = Shopper(ctx)
	var w wireCart
	if err := b.c.do(ctx, rc, &w); err != nil {
		return domain.Cart{}, err
	}
	return resolve(ctx, b, w)
}
