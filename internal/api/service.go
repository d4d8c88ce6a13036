package api

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/cartview"
	"storefront/internal/domain"
	"storefront/internal/repos"
)

var (
	errEmptyCart  = errors.New("cart is empty")
	errEmptyEmail = errors.New("email is required")
	errBadQty     = errors.New("quantity must be positive")
	errNoOrder    = errors.New("order not found")
)

// Shop holds the server-side cart rules: one line per product, additive adds,
// replacing updates and idempotent removals.
type Shop struct {
	Products *repos.ProductRepo
	Carts    *repos.CartRepo
	Orders   *repos.OrderRepo
}

func NewShop(db *sqlx.DB) *Shop {
	return &Shop{
		Products: repos.NewProductRepo(db),
		Carts:    repos.NewCartRepo(db),
		Orders:   repos.NewOrderRepo(db),
	}
}

func (s *Shop) Cart(ctx context.Context, owner string) (domain.Cart, error) {
	cartID, err := s.Carts.EnsureCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.Carts.Lines(ctx, cartID)
}

func (s *Shop) Add(ctx context.Context, owner string, id domain.ProductID, qty int) (domain.Cart, error) {
	if qty < 1 {
		return domain.Cart{}, errBadQty
	}
	if _, err := s.Products.Get(ctx, id); err != nil {
		return domain.Cart{}, err
	}
	cartID, err := s.Carts.EnsureCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.Carts.AddItem(ctx, cartID, id, qty); err != nil {
		return domain.Cart{}, err
	}
	return s.Carts.Lines(ctx, cartID)
}

// Update replaces the line quantity; qty <= 0 removes the line.
func (s *Shop) Update(ctx context.Context, owner string, id domain.ProductID, qty int) (domain.Cart, error) {
	cartID, err := s.Carts.EnsureCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.Carts.SetQty(ctx, cartID, id, qty); err != nil {
		return domain.Cart{}, err
	}
	return s.Carts.Lines(ctx, cartID)
}

func (s *Shop) Remove(ctx context.Context, owner string, id domain.ProductID) (domain.Cart, error) {
	cartID, err := s.Carts.EnsureCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.Carts.RemoveItem(ctx, cartID, id); err != nil {
		return domain.Cart{}, err
	}
	return s.Carts.Lines(ctx, cartID)
}

// PlaceOrder turns the owner's current server-side cart into an order.
func (s *Shop) PlaceOrder(ctx context.Context, owner, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errEmptyEmail
	}
	cartID, err := s.Carts.EnsureCart(ctx, owner)
	if err != nil {
		return "", err
	}
	cart, err := s.Carts.Lines(ctx, cartID)
	if err != nil {
		return "", err
	}
	if cart.Empty() {
		return "", errEmptyCart
	}
	row := repos.OrderRow{
		ID:      uuid.NewString(),
		OwnerID: owner,
		Email:   email,
		Total:   cartview.Total(cart),
	}
	if err := s.Orders.Place(ctx, row, cart.Lines, cartID); err != nil {
		return "", err
	}
	return row.ID, nil
}

type OrderLine struct {
	ProductID domain.ProductID `json:"productId"`
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
}

type OrderView struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"createdAt"`
	Items     []OrderLine     `json:"items,omitempty"`
}

func orderView(o repos.OrderRow) OrderView {
	return OrderView{ID: o.ID, Email: o.Email, Total: o.Total, Status: o.Status, CreatedAt: o.CreatedAt}
}

// Order returns one of the owner's orders with its lines. Orders of other
// owners are reported as missing.
func (s *Shop) Order(ctx context.Context, owner, id string) (OrderView, error) {
	o, items, err := s.Orders.Get(ctx, id)
	if errors.Is(err, repos.ErrNotFound) || (err == nil && o.OwnerID != owner) {
		return OrderView{}, errNoOrder
	}
	if err != nil {
		return OrderView{}, err
	}
	v := orderView(o)
	v.Items = make([]OrderLine, 0, len(items))
	for _, it := range items {
		v.Items = append(v.Items, OrderLine{ProductID: it.ProductID, Name: it.Name, Quantity: it.Qty, Price: it.Price})
	}
	return v, nil
}

// History lists the owner's orders, newest first, without their lines.
func (s *Shop) History(ctx context.Context, owner string) ([]OrderView, error) {
	rows, err := s.Orders.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]OrderView, 0, len(rows))
	for _, o := range rows {
		out = append(out, orderView(o))
	}
	return out, nil
}
