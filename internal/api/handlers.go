package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"storefront/internal/domain"
)

func withSession(r *http.Request, sid string) context.Context {
	return context.WithValue(r.Context(), sessionKey{}, sid)
}

func session(r *http.Request) string {
	s, _ := r.Context().Value(sessionKey{}).(string)
	return s
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.shop.Products.List(r.Context())
	if err != nil {
		respondShopError(w, r, "api.products.list", err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.shop.Products.Get(r.Context(), domain.ProductID(chi.URLParam(r, "id")))
	if err != nil {
		respondShopError(w, r, "api.products.get", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) FixedGetCart(w http.ResponseWriter, r *http.Request) {
	h.getCart(w, r, chi.URLParam(r, "userId"))
}

func (h *Handler) FixedAdd(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_user", "userId is required")
		return
	}
	h.add(w, r, req.UserID, req)
}

func (h *Handler) FixedUpdate(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decode(w, r, &req) {
		return
	}
	req.ProductID = domain.ProductID(chi.URLParam(r, "productId"))
	h.update(w, r, chi.URLParam(r, "userId"), req)
}

func (h *Handler) FixedRemove(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, chi.URLParam(r, "userId"), domain.ProductID(chi.URLParam(r, "productId")))
}

func (h *Handler) SessionGetCart(w http.ResponseWriter, r *http.Request) {
	h.getCart(w, r, session(r))
}

func (h *Handler) SessionAdd(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decode(w, r, &req) {
		return
	}
	h.add(w, r, session(r), req)
}

func (h *Handler) SessionUpdate(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decode(w, r, &req) {
		return
	}
	h.update(w, r, session(r), req)
}

func (h *Handler) SessionRemove(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decode(w, r, &req) {
		return
	}
	h.remove(w, r, session(r), req.ProductID)
}

// CreateOrder serves both contracts: userId in the body wins over the session.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decode(w, r, &req) {
		return
	}
	owner := req.UserID
	if owner == "" {
		owner = session(r)
	}
	id, err := h.shop.PlaceOrder(r.Context(), owner, req.Email)
	if err != nil {
		respondShopError(w, r, "api.orders.create", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// owner resolves the caller for read endpoints: ?userId= wins over the session.
func owner(r *http.Request) string {
	if u := strings.TrimSpace(r.URL.Query().Get("userId")); u != "" {
		return u
	}
	return session(r)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.shop.History(r.Context(), owner(r))
	if err != nil {
		respondShopError(w, r, "api.orders.list", err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.shop.Order(r.Context(), owner(r), chi.URLParam(r, "orderId"))
	if err != nil {
		respondShopError(w, r, "api.orders.get", err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request, owner string) {
	cart, err := h.shop.Cart(r.Context(), owner)
	if err != nil {
		respondShopError(w, r, "api.cart.get", err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request, owner string, req cartItemRequest) {
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	cart, err := h.shop.Add(r.Context(), owner, req.ProductID, qty)
	if err != nil {
		respondShopError(w, r, "api.cart.add", err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, owner string, req cartItemRequest) {
	if req.ProductID == "" || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "productId and quantity are required")
		return
	}
	cart, err := h.shop.Update(r.Context(), owner, req.ProductID, *req.Quantity)
	if err != nil {
		respondShopError(w, r, "api.cart.update", err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, owner string, id domain.ProductID) {
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	cart, err := h.shop.Remove(r.Context(), owner, id)
	if err != nil {
		respondShopError(w, r, "api.cart.remove", err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}
