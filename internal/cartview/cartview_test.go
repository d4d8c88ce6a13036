package cartview_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/cartview"
	"storefront/internal/domain"
)

func line(id string, price string, qty int) domain.CartLine {
	return domain.CartLine{
		Product:  domain.Product{ID: domain.ProductID(id), Name: id, Price: decimal.RequireFromString(price)},
		Quantity: qty,
	}
}

func TestEmptyCart(t *testing.T) {
	var c domain.Cart
	assert.True(t, cartview.Total(c).Equal(decimal.Zero))
	assert.Equal(t, 0, cartview.ItemCount(c))
	s := cartview.Summarize(c)
	assert.True(t, s.Empty())
	assert.Equal(t, "0.00", cartview.Money(s.Total))
}

func TestTotalAndCount(t *testing.T) {
	c := domain.Cart{Lines: []domain.CartLine{line("A", "10", 2), line("B", "5", 1)}}
	assert.Equal(t, "25.00", cartview.Money(cartview.Total(c)))
	assert.Equal(t, 2, cartview.ItemCount(c))
}

func TestCountIsDistinctLines(t *testing.T) {
	c := domain.Cart{Lines: []domain.CartLine{line("A", "1", 7)}}
	assert.Equal(t, 1, cartview.ItemCount(c))
}

func TestTotalRoundsToCents(t *testing.T) {
	c := domain.Cart{Lines: []domain.CartLine{line("A", "0.333", 3), line("B", "19.999", 1)}}
	// 0.999 + 19.999 = 20.998
	assert.Equal(t, "21.00", cartview.Money(cartview.Total(c)))

	c = domain.Cart{Lines: []domain.CartLine{line("A", "0.1", 1), line("B", "0.2", 1)}}
	assert.True(t, cartview.Total(c).Equal(decimal.RequireFromString("0.3")))
}

func TestSummaryLines(t *testing.T) {
	c := domain.Cart{Lines: []domain.CartLine{line("A", "12.5", 2)}}
	s := cartview.Summarize(c)
	if assert.Len(t, s.Lines, 1) {
		assert.Equal(t, "25.00", cartview.Money(s.Lines[0].Subtotal))
		assert.Equal(t, cartview.PlaceholderImage, s.Lines[0].ImageURL)
	}
}

func TestImage(t *testing.T) {
	assert.Equal(t, "/img/a.png", cartview.Image(domain.Product{ImageURL: "/img/a.png"}))
	assert.Equal(t, cartview.PlaceholderImage, cartview.Image(domain.Product{}))
}
