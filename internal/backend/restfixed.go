package backend

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
)

// RestFixed talks to the REST contract that keys carts by a user id in the path.
type RestFixed struct {
	c            *restClient
	fallbackUser string
}

func NewRestFixed(baseURL, fallbackUser string, timeout time.Duration) *RestFixed {
	return &RestFixed{c: newRestClient("rest-fixed", baseURL, timeout), fallbackUser: fallbackUser}
}

func (b *RestFixed) user(ctx context.Context) string {
	if s := Shopper(ctx); s != "" {
		return s
	}
	return b.fallbackUser
}

func (b *RestFixed) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := b.c.do(ctx, call{op: "list products", method: fiber.MethodGet, path: "/products"}, &out)
	return out, err
}

func (b *RestFixed) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var p domain.Product
	if err := b.c.do(ctx, call{op: "get product", method: fiber.MethodGet, path: "/products/" + url.PathEscape(string(id))}, &p); err != nil {
		return domain.Product{}, err
	}
	if p.ID == "" {
		return domain.Product{}, notFound("get product")
	}
	return p, nil
}

func (b *RestFixed) cartPath(ctx context.Context) string {
	return "/cart/" + url.PathEscape(b.user(ctx))
}

func (b *RestFixed) GetCart(ctx context.Context) (domain.Cart, error) {
	return b.cartCall(ctx, call{op: "get cart", method: fiber.MethodGet, path: b.cartPath(ctx)})
}

func (b *RestFixed) AddToCart(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error) {
	body := map[string]any{"userId": b.user(ctx), "productId": wireID(id), "quantity": quantity}
	return b.cartCall(ctx, call{op: "add to cart", method: fiber.MethodPost, path: "/cart", body: body})
}

func (b *RestFixed) UpdateQuantity(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error) {
	return b.cartCall(ctx, call{
		op:     "update quantity",
		method: fiber.MethodPut,
		path:   b.cartPath(ctx) + "/items/" + url.PathEscape(string(id)),
		body:   map[string]any{"quantity": quantity},
	})
}

func (b *RestFixed) RemoveFromCart(ctx context.Context, id domain.ProductID) (domain.Cart, error) {
	cart, err := b.cartCall(ctx, call{
		op:     "remove from cart",
		method: fiber.MethodDelete,
		path:   b.cartPath(ctx) + "/items/" + url.PathEscape(string(id)),
	})
	if isNotFound(err) {
		return b.GetCart(ctx)
	}
	return cart, err
}

func (b *RestFixed) CreateOrder(ctx context.Context, o domain.Order) (string, error) {
	var out wireOrder
	body := map[string]any{"userId": b.user(ctx), "email": o.Email, "items": wireItems(o)}
	if err := b.c.do(ctx, call{op: "create order", method: fiber.MethodPost, path: "/orders", body: body}, &out); err != nil {
		return "", err
	}
	return out.id(), nil
}

func (b *RestFixed) cartCall(ctx context.Context, rc call) (domain.Cart, error) {
	var w wireCart
	if err := b.c.do(ctx, rc, &w); err != nil {
		return domain.Cart{}, err
	}
	return resolve(ctx, b, w)
}
