package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PLManuel/Mitikas-sub000/internal/promo"
)

var ErrNotFound = errors.New("cart: item not found")

type Repo struct{ DB *pgxpool.Pool }

// ListPriced joins each item to the current variant price and the live
// promotion row. No active/date filter on the promotion join: whether a
// stale promotion still prices is decided by the service.
func (r *Repo) ListPriced(ctx context.Context, userID string) ([]StoredItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.variant_id, ci.quantity, ci.promotion_id,
		       pr.name, v.name, v.price_cents,
		       p.id, p.name, p.kind, p.value, p.start_date, p.end_date, p.active
		FROM cart_items ci
		JOIN variants v ON v.id = ci.variant_id
		JOIN products pr ON pr.id = ci.product_id
		LEFT JOIN promotions p ON p.id = ci.promotion_id
		WHERE ci.user_id = $1
		ORDER BY ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredItem
	for rows.Next() {
		var it StoredItem
		var pID *int64
		var pName, pKind *string
		var pValue *int64
		var pStart, pEnd *time.Time
		var pActive *bool
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.PromotionID,
			&it.ProductName, &it.VariantName, &it.UnitCents,
			&pID, &pName, &pKind, &pValue, &pStart, &pEnd, &pActive,
		); err != nil {
			return nil, err
		}
		if pID != nil {
			it.Promotion = &promo.Promotion{
				ID:        *pID,
				Name:      *pName,
				Kind:      promo.Kind(*pKind),
				Value:     *pValue,
				StartDate: *pStart,
				EndDate:   *pEnd,
				Active:    *pActive,
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Upsert adds the variant to the cart or, if a row for (user, variant)
// already exists, increments its quantity atomically and re-stamps the
// promotion with whatever this call supplied, null included. The single
// statement makes two rapid adds for the same variant sum instead of race.
func (r *Repo) Upsert(ctx context.Context, userID string, in AddInput) (Item, error) {
	return upsert(ctx, r.DB, userID, in)
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func upsert(ctx context.Context, q execQuerier, userID string, in AddInput) (Item, error) {
	var it Item
	err := q.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, variant_id, quantity, promotion_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, variant_id) DO UPDATE SET
			quantity     = cart_items.quantity + EXCLUDED.quantity,
			promotion_id = EXCLUDED.promotion_id
		RETURNING id, user_id, product_id, variant_id, quantity, promotion_id`,
		userID, in.ProductID, in.VariantID, in.Quantity, in.PromotionID).
		Scan(&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.PromotionID)
	return it, err
}

func (r *Repo) GetItem(ctx context.Context, id int64) (Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, product_id, variant_id, quantity, promotion_id
		FROM cart_items WHERE id=$1`, id).
		Scan(&it.ID, &it.UserID, &it.ProductID, &it.VariantID, &it.Quantity, &it.PromotionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (r *Repo) UpdateQuantity(ctx context.Context, id int64, qty int32) error {
	ct, err := r.DB.Exec(ctx, `UPDATE cart_items SET quantity=$2 WHERE id=$1`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) UpdatePromotion(ctx context.Context, id int64, promotionID *int64) error {
	ct, err := r.DB.Exec(ctx, `UPDATE cart_items SET promotion_id=$2 WHERE id=$1`, id, promotionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}

// MergeAll applies every local item in one transaction. The client only
// discards its local copy on success, so a mid-merge failure loses nothing.
func (r *Repo) MergeAll(ctx context.Context, userID string, items []AddInput) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, in := range items {
		if _, err := upsert(ctx, tx, userID, in); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
