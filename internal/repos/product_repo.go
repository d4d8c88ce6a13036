package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, name, description, price, COALESCE(image_url,'') AS image_url`

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productColumns+`
	  FROM products
	  ORDER BY created_at, id
	`)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	return p, err
}
