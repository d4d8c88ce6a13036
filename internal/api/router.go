// Package api serves the reference shop API: the fixed-identity and the
// session-based REST contracts over one SQLite store.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

const sessionCookie = "sid"

type Handler struct {
	shop *Shop
}

func NewRouter(shop *Shop, timeout time.Duration) http.Handler {
	h := &Handler{shop: shop}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)

	// Fixed identity: the user id travels in the path or the body.
	r.Get("/cart/{userId}", h.FixedGetCart)
	r.Post("/cart", h.FixedAdd)
	r.Put("/cart/{userId}/items/{productId}", h.FixedUpdate)
	r.Delete("/cart/{userId}/items/{productId}", h.FixedRemove)

	// Implicit session: the sid cookie scopes the cart.
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)
		r.Get("/cart", h.SessionGetCart)
		r.Post("/cart/add", h.SessionAdd)
		r.Put("/cart/update", h.SessionUpdate)
		r.Delete("/cart/remove", h.SessionRemove)
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderId}", h.GetOrder)
	})

	return r
}

type sessionKey struct{}

func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(sessionCookie); err == nil {
			sid = c.Value
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(withSession(r, sid)))
	})
}

type cartItemRequest struct {
	UserID    string           `json:"userId"`
	ProductID domain.ProductID `json:"productId"`
	Quantity  *int             `json:"quantity"`
}

type orderRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		applog.Error(nil, "api.encode.fail", err, nil)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondShopError maps service errors to HTTP statuses.
func respondShopError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, errNoOrder):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repos.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, errBadQty):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, errEmptyEmail):
		respondError(w, http.StatusBadRequest, "invalid_email", err.Error())
	case errors.Is(err, errEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	default:
		applog.Error(nil, action, err, map[string]any{"req_id": middleware.GetReqID(r.Context())})
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
