package services

import (
	"context"

	"storefront/internal/cartstore"
	"storefront/internal/cartview"
	"storefront/internal/domain"
)

type CartService struct {
	Store *cartstore.Store
}

func NewCartService(store *cartstore.Store) *CartService {
	return &CartService{Store: store}
}

// View re-fetches the shopper's cart from the backend.
func (s *CartService) View(ctx context.Context, shopper string) (cartview.Summary, error) {
	c, err := s.Store.Load(ctx, shopper)
	if err != nil {
		return cartview.Summary{}, err
	}
	return cartview.Summarize(c), nil
}

func (s *CartService) Add(ctx context.Context, shopper string, id domain.ProductID, qty int) (cartview.Summary, error) {
	if qty < 1 {
		qty = 1
	}
	c, err := s.Store.Add(ctx, shopper, id, qty)
	if err != nil {
		return cartview.Summary{}, err
	}
	return cartview.Summarize(c), nil
}

// Update forwards qty unchanged; what a non-positive value means is up to the backend.
func (s *CartService) Update(ctx context.Context, shopper string, id domain.ProductID, qty int) (cartview.Summary, error) {
	c, err := s.Store.Update(ctx, shopper, id, qty)
	if err != nil {
		return cartview.Summary{}, err
	}
	return cartview.Summarize(c), nil
}

func (s *CartService) Remove(ctx context.Context, shopper string, id domain.ProductID) (cartview.Summary, error) {
	c, err := s.Store.Remove(ctx, shopper, id)
	if err != nil {
		return cartview.Summary{}, err
	}
	return cartview.Summarize(c), nil
}

// Count is the badge number: the cached snapshot when there is one, else a load.
func (s *CartService) Count(ctx context.Context, shopper string) (int, error) {
	if c, ok := s.Store.Snapshot(ctx, shopper); ok {
		return cartview.ItemCount(c), nil
	}
	c, err := s.Store.Load(ctx, shopper)
	if err != nil {
		return 0, err
	}
	return cartview.ItemCount(c), nil
}
