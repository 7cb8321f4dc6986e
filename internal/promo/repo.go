package promo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("promo: not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) LinkedTo(ctx context.Context, variantID int64) ([]Promotion, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.name, p.kind, p.value, p.start_date, p.end_date, p.active
		FROM promotions p
		JOIN promotion_variants pv ON pv.promotion_id = p.id
		WHERE pv.variant_id = $1
		ORDER BY p.id`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.Kind, &p.Value, &p.StartDate, &p.EndDate, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns the live promotion row whatever its state; callers decide
// whether a stale promotion still prices.
func (r *Repo) Get(ctx context.Context, id int64) (Promotion, error) {
	var p Promotion
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, kind, value, start_date, end_date, active
		FROM promotions WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Kind, &p.Value, &p.StartDate, &p.EndDate, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Promotion{}, ErrNotFound
	}
	return p, err
}

// IsLinked reports whether the promotion is explicitly linked to the variant.
func (r *Repo) IsLinked(ctx context.Context, promotionID, variantID int64) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM promotion_variants
		WHERE promotion_id=$1 AND variant_id=$2`, promotionID, variantID).Scan(&n)
	return n > 0, err
}
