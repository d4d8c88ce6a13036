package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/backend"
	"storefront/internal/cartstore"
	"storefront/internal/cartview"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/validate"
)

// ErrValidation marks input rejected before any backend call.
var ErrValidation = errors.New("validation failed")

type Receipt struct {
	OrderID string
	Email   string
	Total   decimal.Decimal
}

type OrderService struct {
	Orders backend.Orders
	Store  *cartstore.Store
}

func NewOrderService(orders backend.Orders, store *cartstore.Store) *OrderService {
	return &OrderService{Orders: orders, Store: store}
}

// Checkout places an order for the shopper's current server-side cart.
func (s *OrderService) Checkout(ctx context.Context, shopper, email string) (Receipt, error) {
	email, ok := validate.Email(email)
	if email == "" {
		return Receipt{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !ok {
		return Receipt{}, fmt.Errorf("%w: email address looks invalid", ErrValidation)
	}

	cart, err := s.Store.Load(ctx, shopper)
	if err != nil {
		return Receipt{}, err
	}
	if cart.Empty() {
		return Receipt{}, fmt.Errorf("%w: your cart is empty", ErrValidation)
	}

	id, err := s.Orders.CreateOrder(backend.WithShopper(ctx, shopper), domain.NewOrder(email, cart.Lines))
	if err != nil {
		return Receipt{}, err
	}

	// the backend empties the cart on success; pick that up for the badge
	if _, err := s.Store.Load(ctx, shopper); err != nil {
		applog.Error(nil, "checkout.cart.refresh", err, map[string]any{"order_id": id})
	}
	return Receipt{OrderID: id, Email: email, Total: cartview.Total(cart)}, nil
}
