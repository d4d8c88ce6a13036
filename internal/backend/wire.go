package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"storefront/internal/domain"
)

const sessionCookie = "sid"

// wireLine accepts a line carrying the product by value or only its id.
type wireLine struct {
	ProductID domain.ProductID `json:"productId"`
	Product   *domain.Product  `json:"product"`
	Quantity  int              `json:"quantity"`
}

type wireCart struct {
	Lines []wireLine
}

// UnmarshalJSON accepts a bare array of lines, {"items": [...]} or {"cart": ...}.
func (w *wireCart) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		w.Lines = nil
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &w.Lines)
	}
	var obj struct {
		Items json.RawMessage `json:"items"`
		Cart  json.RawMessage `json:"cart"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case len(obj.Items) > 0:
		return json.Unmarshal(obj.Items, &w.Lines)
	case len(obj.Cart) > 0:
		return w.UnmarshalJSON(obj.Cart)
	}
	w.Lines = nil
	return nil
}

// resolve turns wire lines into a cart, fetching products that came by reference.
// A referenced product that no longer exists is dropped from the snapshot.
func resolve(ctx context.Context, cat Catalog, w wireCart) (domain.Cart, error) {
	cart := domain.Cart{Lines: make([]domain.CartLine, 0, len(w.Lines))}
	for _, l := range w.Lines {
		if l.Product != nil && l.Product.ID != "" {
			cart.Lines = append(cart.Lines, domain.CartLine{Product: *l.Product, Quantity: l.Quantity})
			continue
		}
		id := l.ProductID
		if id == "" && l.Product != nil {
			id = l.Product.ID
		}
		if id == "" {
			continue
		}
		p, err := cat.GetProduct(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.Cart{}, fmt.Errorf("resolve cart line %s: %w", id, err)
		}
		cart.Lines = append(cart.Lines, domain.CartLine{Product: p, Quantity: l.Quantity})
	}
	return cart, nil
}

// wireID sends numeric ids as JSON numbers, which is what numeric-id backends expect.
func wireID(id domain.ProductID) any {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return json.Number(id)
	}
	return string(id)
}

type wireItem struct {
	ProductID any `json:"productId"`
	Quantity  int `json:"quantity"`
}

func wireItems(o domain.Order) []wireItem {
	items := make([]wireItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, wireItem{ProductID: wireID(it.ProductID), Quantity: it.Quantity})
	}
	return items
}

// Order ids, like product ids, arrive as strings or numbers; ProductID decodes both.
type wireOrder struct {
	ID      domain.ProductID `json:"id"`
	OrderID domain.ProductID `json:"orderId"`
}

func (o wireOrder) id() string {
	if o.ID != "" {
		return string(o.ID)
	}
	return string(o.OrderID)
}
