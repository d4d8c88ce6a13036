package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureCart returns the cart id for ownerID, creating the cart on first use.
func (r *CartRepo) EnsureCart(ctx context.Context, ownerID string) (string, error) {
	var cartID string
	if err := r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE owner_id = ?`, ownerID); err == nil {
		return cartID, nil
	}
	cartID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts(id, owner_id, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(owner_id) DO NOTHING
	`, cartID, ownerID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	err = r.db.GetContext(ctx, &cartID, `SELECT id FROM carts WHERE owner_id = ?`, ownerID)
	return cartID, err
}

// AddItem adds qty to the product's line, creating the line when needed.
func (r *CartRepo) AddItem(ctx context.Context, cartID string, productID domain.ProductID, qty int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id, product_id, qty, created_at)
		VALUES(?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET qty = cart_items.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, cartID, productID, qty)
	return err
}

// SetQty replaces the quantity of an existing line. A non-positive qty removes the line.
// Lines that do not exist are left alone.
func (r *CartRepo) SetQty(ctx context.Context, cartID string, productID domain.ProductID, qty int) error {
	if qty <= 0 {
		return r.RemoveItem(ctx, cartID, productID)
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = ? AND product_id = ?
	`, qty, cartID, productID)
	return err
}

// RemoveItem deletes the line if present.
func (r *CartRepo) RemoveItem(ctx context.Context, cartID string, productID domain.ProductID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return err
}

type cartLineRow struct {
	ProductID   domain.ProductID `db:"product_id"`
	Name        string           `db:"name"`
	Description string           `db:"description"`
	Price       decimal.Decimal  `db:"price"`
	ImageURL    string           `db:"image_url"`
	Qty         int              `db:"qty"`
}

// Lines returns the cart joined with current product data.
func (r *CartRepo) Lines(ctx context.Context, cartID string) (domain.Cart, error) {
	var rows []cartLineRow
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT ci.product_id, p.name, p.description, p.price, COALESCE(p.image_url,'') AS image_url, ci.qty
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at, ci.product_id
	`, cartID); err != nil {
		return domain.Cart{}, err
	}
	cart := domain.Cart{Lines: make([]domain.CartLine, 0, len(rows))}
	for _, row := range rows {
		cart.Lines = append(cart.Lines, domain.CartLine{
			Product: domain.Product{
				ID:          row.ProductID,
				Name:        row.Name,
				Description: row.Description,
				Price:       row.Price,
				ImageURL:    row.ImageURL,
			},
			Quantity: row.Qty,
		})
	}
	return cart, nil
}
