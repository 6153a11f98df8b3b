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

// List returns every product in insertion order.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT id, name, email, store, COALESCE(picture,'') AS picture
  FROM products
  ORDER BY id
`)
	if err != nil {
		return nil, domain.NewStoreError("list products", err)
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `
  SELECT id, name, email, store, COALESCE(picture,'') AS picture
  FROM products
  WHERE id = ?
`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, domain.NewStoreError("get product", err)
	}
	return p, nil
}

// Create inserts p and returns the id assigned by the backend. p.ID is ignored.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (int64, error) {
	res, err := r.db.NamedExecContext(ctx, `
  INSERT INTO products(name, email, store, picture)
  VALUES (:name, :email, :store, :picture)
`, p)
	if err != nil {
		return 0, domain.NewStoreError("create product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.NewStoreError("create product", err)
	}
	return id, nil
}

// Update overwrites all mutable fields of the row identified by p.ID.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	res, err := r.db.NamedExecContext(ctx, `
  UPDATE products
  SET name = :name, email = :email, store = :store, picture = :picture
  WHERE id = :id
`, p)
	if err != nil {
		return domain.NewStoreError("update product", err)
	}
	return affectedOne(res, "update product")
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return domain.NewStoreError("delete product", err)
	}
	return affectedOne(res, "delete product")
}

// Ping backs the health endpoint.
func (r *ProductRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func affectedOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStoreError(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
