package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type OrderRow struct {
	ID        string          `db:"id"`
	OwnerID   string          `db:"owner_id"`
	Email     string          `db:"customer_email"`
	Total     decimal.Decimal `db:"total"`
	Status    string          `db:"status"`
	CreatedAt string          `db:"created_at"`
}

type OrderItemRow struct {
	ProductID domain.ProductID `db:"product_id"`
	Name      string           `db:"name"`
	Qty       int              `db:"qty"`
	Price     decimal.Decimal  `db:"price"`
}

// Place stores the order header, its lines and empties the cart in one transaction.
func (r *OrderRepo) Place(ctx context.Context, o OrderRow, lines []domain.CartLine, cartID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO orders(id, owner_id, customer_email, total, status, created_at)
	  VALUES(?, ?, ?, ?, 'PLACED', CURRENT_TIMESTAMP)
	`, o.ID, o.OwnerID, o.Email, o.Total); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, product_id, qty, price) VALUES(?, ?, ?, ?)
		`, o.ID, l.Product.ID, l.Quantity, l.Product.Price); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	if err := r.db.GetContext(ctx, &o, `
		SELECT id, owner_id, customer_email, total, status, created_at
		FROM orders WHERE id = ?
	`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderRow{}, nil, ErrNotFound
		}
		return OrderRow{}, nil, err
	}

	var items []OrderItemRow
	if err := r.db.SelectContext(ctx, &items, `
		SELECT oi.product_id, p.name, oi.qty, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY p.name
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}
	return o, items, nil
}

// ListByOwner returns the owner's orders, newest first.
func (r *OrderRepo) ListByOwner(ctx context.Context, ownerID string) ([]OrderRow, error) {
	var out []OrderRow
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, owner_id, customer_email, total, status, created_at
		FROM orders
		WHERE owner_id = ?
		ORDER BY datetime(created_at) DESC
	`, ownerID)
	return out, err
}
