package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/backend"
	"storefront/internal/cartstore"
	"storefront/internal/domain"
	"storefront/internal/services"
)

// stubBackend records calls and serves one shopper's cart from memory.
type stubBackend struct {
	products []domain.Product
	lines    map[domain.ProductID]int
	calls    int
	orders   []domain.Order
	failWith error
}

func newStub() *stubBackend {
	return &stubBackend{
		products: []domain.Product{
			{ID: "a", Name: "Game Boy Color", Description: "Handheld console", Price: decimal.RequireFromString("10")},
			{ID: "b", Name: "Philco 1939", Description: "Tube radio with wooden cabinet", Price: decimal.RequireFromString("5")},
			{ID: "c", Name: "Walkman WM-2", Description: "Portable cassette player", Price: decimal.RequireFromString("64.90")},
		},
		lines: map[domain.ProductID]int{},
	}
}

func (s *stubBackend) cart() domain.Cart {
	var c domain.Cart
	for _, p := range s.products {
		if q, ok := s.lines[p.ID]; ok {
			c.Lines = append(c.Lines, domain.CartLine{Product: p, Quantity: q})
		}
	}
	return c
}

func (s *stubBackend) ListProducts(context.Context) ([]domain.Product, error) {
	s.calls++
	return s.products, s.failWith
}

func (s *stubBackend) GetProduct(_ context.Context, id domain.ProductID) (domain.Product, error) {
	s.calls++
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, backend.ErrNotFound
}

func (s *stubBackend) GetCart(context.Context) (domain.Cart, error) {
	s.calls++
	return s.cart(), s.failWith
}

func (s *stubBackend) AddToCart(_ context.Context, id domain.ProductID, q int) (domain.Cart, error) {
	s.calls++
	if s.failWith != nil {
		return domain.Cart{}, s.failWith
	}
	s.lines[id] += q
	return s.cart(), nil
}

func (s *stubBackend) UpdateQuantity(_ context.Context, id domain.ProductID, q int) (domain.Cart, error) {
	s.calls++
	if _, ok := s.lines[id]; ok {
		s.lines[id] = q
	}
	return s.cart(), nil
}

func (s *stubBackend) RemoveFromCart(_ context.Context, id domain.ProductID) (domain.Cart, error) {
	s.calls++
	delete(s.lines, id)
	return s.cart(), nil
}

func (s *stubBackend) CreateOrder(_ context.Context, o domain.Order) (string, error) {
	s.calls++
	s.orders = append(s.orders, o)
	s.lines = map[domain.ProductID]int{}
	return "order-1", nil
}

func TestFilterProducts(t *testing.T) {
	all := newStub().products

	if got := services.FilterProducts(all, ""); len(got) != 3 {
		t.Fatalf("empty query should keep all, got %d", len(got))
	}
	if got := services.FilterProducts(all, "  GAME "); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("name match failed: %+v", got)
	}
	if got := services.FilterProducts(all, "cassette"); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("description match failed: %+v", got)
	}
	if got := services.FilterProducts(all, "zeppelin"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestCatalogSearch(t *testing.T) {
	stub := newStub()
	cat := services.NewCatalogService(stub)
	got, err := cat.Search(context.Background(), "radio")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Philco 1939" {
		t.Fatalf("unexpected results %+v", got)
	}
	if _, err := cat.GetProduct(context.Background(), "zz"); !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCartServiceTotals(t *testing.T) {
	stub := newStub()
	carts := services.NewCartService(cartstore.New(stub, nil))
	ctx := context.Background()

	if _, err := carts.Add(ctx, "s1", "a", 2); err != nil {
		t.Fatal(err)
	}
	sum, err := carts.Add(ctx, "s1", "b", 0)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 2 || !sum.Total.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("want count 2 total 25.00, got %d %s", sum.Count, sum.Total)
	}

	n, err := carts.Count(ctx, "s1")
	if err != nil || n != 2 {
		t.Fatalf("badge count = %d, %v", n, err)
	}

	sum, err = carts.Update(ctx, "s1", "a", 1)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Total.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("after update total = %s", sum.Total)
	}

	sum, err = carts.Remove(ctx, "s1", "b")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 1 {
		t.Fatalf("after remove count = %d", sum.Count)
	}
}

func TestCheckoutRejectsEmptyEmailBeforeBackend(t *testing.T) {
	stub := newStub()
	orders := services.NewOrderService(stub, cartstore.New(stub, nil))

	for _, email := range []string{"", "   "} {
		_, err := orders.Checkout(context.Background(), "s1", email)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("want ErrValidation for %q, got %v", email, err)
		}
	}
	if stub.calls != 0 {
		t.Fatalf("backend was called %d times", stub.calls)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	stub := newStub()
	orders := services.NewOrderService(stub, cartstore.New(stub, nil))
	_, err := orders.Checkout(context.Background(), "s1", "a@b.co")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if len(stub.orders) != 0 {
		t.Fatal("no order should be created")
	}
}

func TestCheckoutPlacesOrder(t *testing.T) {
	stub := newStub()
	store := cartstore.New(stub, nil)
	orders := services.NewOrderService(stub, store)
	ctx := context.Background()

	if _, err := store.Add(ctx, "s1", "c", 1); err != nil {
		t.Fatal(err)
	}
	r, err := orders.Checkout(ctx, "s1", " a@b.co ")
	if err != nil {
		t.Fatal(err)
	}
	if r.OrderID != "order-1" || r.Email != "a@b.co" || r.Total.StringFixed(2) != "64.90" {
		t.Fatalf("unexpected receipt %+v", r)
	}
	if len(stub.orders) != 1 || stub.orders[0].Items[0].ProductID != "c" {
		t.Fatalf("unexpected order %+v", stub.orders)
	}
	snap, ok := store.Snapshot(ctx, "s1")
	if !ok || !snap.Empty() {
		t.Fatalf("cart should be refreshed to empty, got %+v", snap)
	}
}

func TestPageState(t *testing.T) {
	var p services.PageState
	if p.Status != services.Idle {
		t.Fatal("zero state should be idle")
	}
	p = p.Load().Done(nil)
	if p.Status != services.Ready || p.Alert() != "" {
		t.Fatalf("want ready, got %v", p.Status)
	}
	p = p.Mutate()
	if p.Status != services.Mutating {
		t.Fatalf("want mutating, got %v", p.Status)
	}
	p = p.Done(&backend.TransportError{Op: "add to cart", Status: 503, Err: errors.New("down")})
	if p.Status != services.Failed || p.Alert() != "The shop could not be reached. Please try again." {
		t.Fatalf("unexpected failed state %v %q", p.Status, p.Alert())
	}
}

func TestAlertMessages(t *testing.T) {
	if got := services.Alert(errors.Join(services.ErrValidation)); got == "" {
		t.Fatal("validation errors need a message")
	}
	stub := newStub()
	_, err := services.NewOrderService(stub, cartstore.New(stub, nil)).Checkout(context.Background(), "s", "")
	if got := services.Alert(err); got != "Email is required." {
		t.Fatalf("got %q", got)
	}
	if got := services.Alert(backend.ErrNotFound); got != "That product is no longer available." {
		t.Fatalf("got %q", got)
	}
}
