package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/api"
	"storefront/internal/backend"
	"storefront/internal/cartstore"
	"storefront/internal/domain"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

const testSID = "6f1c1f0e-8a8e-4d4b-9a53-3c3c7a9d2b11"

// countingBackend counts calls that reach the backend.
type countingBackend struct {
	backend.Backend
	calls atomic.Int32
}

func (b *countingBackend) GetCart(ctx context.Context) (domain.Cart, error) {
	b.calls.Add(1)
	return b.Backend.GetCart(ctx)
}

func (b *countingBackend) CreateOrder(ctx context.Context, o domain.Order) (string, error) {
	b.calls.Add(1)
	return b.Backend.CreateOrder(ctx, o)
}

type testShop struct {
	app   *fiber.App
	be    *countingBackend
	store *cartstore.Store
	deps  *handlers.Deps
	logs  *observer.ObservedLogs
}

// newShop wires the storefront to an in-memory reference API.
func newShop(t *testing.T) *testShop {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(api.NewShop(db), 5*time.Second))
	t.Cleanup(func() {
		srv.Close()
		_ = db.Close()
	})
	return newShopWith(t, backend.NewRestSession(srv.URL, 2*time.Second))
}

func newShopWith(t *testing.T, be backend.Backend) *testShop {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	t.Cleanup(applog.Set(zap.New(core)))

	cb := &countingBackend{Backend: be}
	store := cartstore.New(cb, cartstore.NewMemoryCache())
	deps := handlers.NewDeps(cb, store)
	app := handlers.NewApp(deps, handlers.AppOptions{RateLimit: 1000})
	return &testShop{app: app, be: cb, store: store, deps: deps, logs: logs}
}

func (s *testShop) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	return s.do(t, req)
}

func (s *testShop) post(t *testing.T, path, csrf string, form url.Values) (*http.Response, string) {
	t.Helper()
	if csrf != "" {
		form.Set("csrf", csrf)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	if csrf != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrf})
	}
	return s.do(t, req)
}

func (s *testShop) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, string(body)
}

// csrf fetches a page and returns the token the middleware issued.
func (s *testShop) csrf(t *testing.T) string {
	t.Helper()
	resp, _ := s.get(t, "/thank-you")
	tok := cookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (s *testShop) actions(action string) []observer.LoggedEntry {
	return s.logs.FilterField(zap.String("action", action)).All()
}
