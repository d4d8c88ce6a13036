// Package backend is the storefront's boundary to a remote shop API.
//
// Three wire contracts are supported behind one interface: REST keyed by a user id in the
// path (RestFixed), REST keyed by a session cookie (RestSession), and GraphQL (GraphQL).
// Every cart operation returns the full cart as the server sees it after the call; callers
// replace their local copy with it and never merge.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// GetProduct returns ErrNotFound when the product does not exist.
	GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error)
}

type Carts interface {
	GetCart(ctx context.Context) (domain.Cart, error)
	// AddToCart adds quantity to the product's line, creating it when absent.
	AddToCart(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error)
	// UpdateQuantity replaces the line quantity. Non-positive values are sent unchanged.
	UpdateQuantity(ctx context.Context, id domain.ProductID, quantity int) (domain.Cart, error)
	// RemoveFromCart drops the line. Removing an absent product is not an error.
	RemoveFromCart(ctx context.Context, id domain.ProductID) (domain.Cart, error)
}

type Orders interface {
	// CreateOrder submits the order and returns the backend's order id.
	CreateOrder(ctx context.Context, order domain.Order) (string, error)
}

type Backend interface {
	Catalog
	Carts
	Orders
}

type shopperKey struct{}

// WithShopper attaches the shopper identity used to scope cart and order calls.
func WithShopper(ctx context.Context, shopperID string) context.Context {
	return context.WithValue(ctx, shopperKey{}, shopperID)
}

// Shopper returns the identity attached by WithShopper, or "".
func Shopper(ctx context.Context) string {
	s, _ := ctx.Value(shopperKey{}).(string)
	return s
}

// New builds the adapter selected by cfg.BackendKind.
func New(cfg config.Config) (Backend, error) {
	base := strings.TrimRight(cfg.BackendURL, "/")
	switch cfg.BackendKind {
	case config.BackendRestFixed:
		return NewRestFixed(base, cfg.FixedUserID, cfg.RequestTimeout), nil
	case config.BackendRestSession:
		return NewRestSession(base, cfg.RequestTimeout), nil
	case config.BackendGraphQL:
		endpoint := base
		if !strings.HasSuffix(endpoint, "/graphql") {
			endpoint += "/graphql"
		}
		return NewGraphQL(endpoint, cfg.RequestTimeout), nil
	}
	return nil, fmt.Errorf("unknown backend kind %q", cfg.BackendKind)
}

// effectiveTimeout bounds the configured timeout by the context deadline.
func effectiveTimeout(ctx context.Context, d time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < d {
			return rem
		}
	}
	return d
}
