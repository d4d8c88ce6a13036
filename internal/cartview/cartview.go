// Package cartview derives presentation data from a cart snapshot.
// Nothing here is stored; callers recompute on every cart change.
package cartview

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// PlaceholderImage is served when a product has no image.
const PlaceholderImage = "/static/placeholder.svg"

// Total is the sum of price x quantity over all lines, rounded to cents.
func Total(c domain.Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(Subtotal(l))
	}
	return sum.Round(2)
}

// ItemCount is the number of distinct lines, not the sum of quantities.
func ItemCount(c domain.Cart) int { return len(c.Lines) }

func Subtotal(l domain.CartLine) decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type LineView struct {
	ProductID   domain.ProductID
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

type Summary struct {
	Lines []LineView
	Total decimal.Decimal
	Count int
}

func (s Summary) Empty() bool { return s.Count == 0 }

func Summarize(c domain.Cart) Summary {
	lines := make([]LineView, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, LineView{
			ProductID:   l.Product.ID,
			Name:        l.Product.Name,
			Description: l.Product.Description,
			ImageURL:    Image(l.Product),
			Price:       l.Product.Price,
			Quantity:    l.Quantity,
			Subtotal:    Subtotal(l).Round(2),
		})
	}
	return Summary{Lines: lines, Total: Total(c), Count: ItemCount(c)}
}

// Image returns the product image or the placeholder.
func Image(p domain.Product) string {
	if p.ImageURL == "" {
		return PlaceholderImage
	}
	return p.ImageURL
}

// Money formats an amount with two decimals.
func Money(d decimal.Decimal) string { return d.StringFixed(2) }
