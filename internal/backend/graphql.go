package backend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"github.com/sony/gobreaker/v2"

	"storefront/internal/domain"
)

// ShopperHeader carries the shopper identity to the GraphQL endpoint.
const ShopperHeader = "X-Shopper-ID"

const (
	productFields = `id name description price imageUrl`
	cartFields    = `items { productId quantity product { ` + productFields + ` } }`

	queryProducts = `query Products { products { ` + productFields + ` } }`
	queryProduct  = `query Product($id: ID!) { product(id: $id) { ` + productFields + ` } }`
	queryCart     = `query Cart { cart { ` + cartFields + ` } }`

	mutationAdd = `mutation AddToCart($productId: ID!, $quantity: Int!) {
  addToCart(productId: $productId, quantity: $quantity) { ` + cartFields + ` } }`
	mutationUpdate = `mutation UpdateQuantity($productId: ID!, $quantity: Int!) {
  updateQuantity(productId: $productId, quantity: $quantity) { ` + cartFields + ` } }`
	mutationRemove = `mutation RemoveFromCart($productId: ID!) {
  removeFromCart(productId: $productId) { ` + cartFields + ` } }`
	mutationOrder = `mutation CreateOrder($email: String!, $items: [OrderItemInput!]!) {
  createOrder(email: $email, items: $items) { id } }`
)

// GraphQL talks to a single GraphQL endpoint; identity travels in ShopperHeader.
type GraphQL struct {
	client  *graphql.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewGraphQL(endpoint string, timeout time.Duration) *GraphQL {
	hc := &http.Client{Timeout: timeout}
	return &GraphQL{
		client:  graphql.NewClient(endpoint, graphql.WithHTTPClient(hc)),
		timeout: timeout,
		breaker: newBreaker[struct{}]("graphql"),
	}
}

func (g *GraphQL) run(ctx context.Context, op, query string, vars map[string]any, out any) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, effectiveTimeout(ctx, g.timeout))
	defer cancel()

	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	if s := Shopper(ctx); s != "" {
		req.Header.Set(ShopperHeader, s)
	}
	_, err := g.breaker.Execute(func() (struct{}, error) {
		if err := g.client.Run(ctx, req, out); err != nil {
			if isNotFoundMessage(err) {
				return struct{}{}, notFound(op)
			}
			return struct{}{}, &TransportError{Op: op, Err: err}
		}
		return struct{}{}, nil
	})
	return breakerError(op, err)
}

// notFoundMessages are the endpoint's answers for a missing product or cart
// line. Anything else, including schema errors, is a transport failure.
var notFoundMessages = map[string]bool{
	"product not found": true,
	"line not found":    true,
}

func isNotFoundMessage(err error) bool {
	msg := strings.TrimPrefix(err.Error(), "graphql: ")
	return notFoundMessages[strings.ToLower(strings.TrimSpace(msg))]
}

func (g *GraphQL) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out struct {
		Products []domain.Product `json:"products"`
	}
	if err := g.run(ctx, "list products", queryProducts, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (g *GraphQL) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var out struct {
		Product *domain.Product `json:"product"`
	}
	if err := g.run(ctx, "get product", queryProduct, map[string]any{"id": string(id)}, &out); err != nil {
		return domain.Product{}, err
	}
	if out.Product == nil || out.Product.ID == "" {
		return domain.Product{}, notFound("get product")
	}
	return *out.Product, nil
}

func (g *GraphQL) GetCart(ctx context.Context) (domain.Cart, error) {
	var out struct {
		Cart wireCart `json:"cart"`
	}
	if err := g.run(ctx, "get cart", queryCart, nil, &out); err != nil {
		return domain.Cart{}, err
	}
	return resolve(ctx, g, out.Cart)
}

func (g *GraphQL) AddToCart(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error) {
	var out struct {
		Cart wireCart `json:"addToCart"`
	}
	vars := map[string]any{"productId": string(id), "quantity": quantity}
	if err := g.run(ctx, "add to cart", mutationAdd, vars, &out); err != nil {
		return domain.Cart{}, err
	}
	return resolve(ctx, g, out.Cart)
}

func (g *GraphQL) UpdateQuantity(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error) {
	var out struct {
		Cart wireCart `json:"updateQuantity"`
	}
	vars := map[string]any{"productId": string(id), "quantity": quantity}
	if err := g.run(ctx, "update quantity", mutationUpdate, vars, &out); err != nil {
		return domain.Cart{}, err
	}
	return resolve(ctx, g, out.Cart)
}

func (g *GraphQL) RemoveFromCart(ctx context.Context, id domain.ProductID) (domain.Cart, error) {
	var out struct {
		Cart wireCart `json:"removeFromCart"`
	}
	err := g.run(ctx, "remove from cart", mutationRemove, map[string]any{"productId": string(id)}, &out)
	if isNotFound(err) {
		return g.GetCart(ctx)
	}
	if err != nil {
		return domain.Cart{}, err
	}
	return resolve(ctx, g, out.Cart)
}

func (g *GraphQL) CreateOrder(ctx context.Context, o domain.Order) (string, error) {
	var out struct {
		Order wireOrder `json:"createOrder"`
	}
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{"productId": string(it.ProductID), "quantity": it.Quantity})
	}
	vars := map[string]any{"email": o.Email, "items": items}
	if err := g.run(ctx, "create order", mutationOrder, vars, &out); err != nil {
		return "", err
	}
	return out.Order.id(), nil
}
