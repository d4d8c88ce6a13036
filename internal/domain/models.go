package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Shop APIs exchange prices as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductID identifies a product. Backends send it either as a JSON string or a number.
type ProductID string

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string { return string(id) }

type Product struct {
	ID          ProductID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    string          `json:"imageUrl,omitempty" db:"image_url"`
}

// CartLine pairs a product with a positive quantity. At most one line exists per product.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart is the server-authoritative snapshot for one shopper. Line order carries no meaning.
type Cart struct {
	Lines []CartLine `json:"items"`
}

// Line returns the line for productID, if any.
func (c Cart) Line(productID ProductID) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Product.ID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

func (c Cart) Empty() bool { return len(c.Lines) == 0 }

type OrderItem struct {
	ProductID ProductID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// Order is built at checkout and discarded once submitted.
type Order struct {
	Email string      `json:"email"`
	Items []OrderItem `json:"items"`
}

// NewOrder builds an order from the current cart lines.
func NewOrder(email string, lines []CartLine) Order {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	return Order{Email: email, Items: items}
}
