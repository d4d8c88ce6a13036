package handlers

import (
	"storefront/internal/backend"
	"storefront/internal/cartstore"
	"storefront/internal/services"
)

type Deps struct {
	ShopHandler     *ShopHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
}

func NewDeps(be backend.Backend, store *cartstore.Store) *Deps {
	catalogSvc := services.NewCatalogService(be)
	cartSvc := services.NewCartService(store)
	orderSvc := services.NewOrderService(be, store)

	return &Deps{
		ShopHandler:     &ShopHandler{Catalog: catalogSvc, Cart: cartSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Cart: cartSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Store: store},
		CheckoutHandler: &CheckoutHandler{Cart: cartSvc, Order: orderSvc, Store: store},
	}
}
