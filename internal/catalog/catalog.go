package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Product struct {
	ID     int64
	Name   string
	Active bool
}

type Variant struct {
	ID         int64
	ProductID  int64
	Name       string
	PriceCents int64
	Active     bool
}

var ErrNotFound = errors.New("catalog: not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, active FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (r *Repo) GetVariant(ctx context.Context, id int64) (Variant, error) {
	var v Variant
	err := r.DB.QueryRow(ctx,
		`SELECT id, product_id, name, price_cents, active FROM variants WHERE id=$1`, id).
		Scan(&v.ID, &v.ProductID, &v.Name, &v.PriceCents, &v.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Variant{}, ErrNotFound
	}
	return v, err
}
