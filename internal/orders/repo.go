package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("orders: not found")
	// ErrStale means the row's status moved under us; the caller lost the race.
	ErrStale = errors.New("orders: status changed concurrently")
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, created_at, name, surname, address, delivery_zone_id,
	shipping_cents, payment_method_id, card_id, courier_id, status, user_id`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CreatedAt, &o.Name, &o.Surname, &o.Address, &o.DeliveryZoneID,
		&o.ShippingCents, &o.PaymentMethodID, &o.CardID, &o.CourierID, &o.Status, &o.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
}

func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) Lines(ctx context.Context, orderID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, variant_id, quantity,
		       unit_cents, promo_cents, subtotal_cents, status, promotion_id
		FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VariantID, &l.Quantity,
			&l.UnitCents, &l.PromoCents, &l.SubtotalCents, &l.Status, &l.PromotionID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateStatus advances the order only if it still sits at from, which
// keeps the lifecycle strictly forward under concurrent staff actions.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, from, to Status, courierID *string) error {
	var ct pgconn.CommandTag
	var err error
	if courierID != nil {
		ct, err = r.DB.Exec(ctx,
			`UPDATE orders SET status=$3, courier_id=$4 WHERE id=$1 AND status=$2`,
			orderID, string(from), string(to), *courierID)
	} else {
		ct, err = r.DB.Exec(ctx,
			`UPDATE orders SET status=$3 WHERE id=$1 AND status=$2`,
			orderID, string(from), string(to))
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}
