package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PLManuel/Mitikas-sub000/internal/orders"
	"github.com/PLManuel/Mitikas-sub000/internal/payment"
)

type Repo struct{ DB *pgxpool.Pool }

// PlaceOrder materializes a checkout in one transaction: card debit (card
// path only), order insert, one line per cart item with frozen prices, and
// the cart delete. Either all of it lands or none of it does; a debit with
// no order cannot be observed.
func (r *Repo) PlaceOrder(ctx context.Context, p Placement) (string, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if p.Method.Kind == payment.KindCard {
		if err := payment.DebitTx(ctx, tx, p.Method.CardID, p.UserID, p.GrandTotalCents); err != nil {
			return "", err
		}
	}

	orderID := uuid.NewString()
	var cardID *int64
	if p.Method.Kind == payment.KindCard {
		cardID = &p.Method.CardID
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, created_at, name, surname, address, delivery_zone_id,
		                    shipping_cents, payment_method_id, card_id, status, user_id)
		VALUES ($1, now(), $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		orderID, p.Name, p.Surname, p.Address, p.DeliveryZoneID,
		p.ShippingCents, p.Method.MethodID, cardID, string(orders.StatusSubmitted), p.UserID)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	for _, l := range p.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, variant_id, quantity,
			                         unit_cents, promo_cents, subtotal_cents, status, promotion_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)`,
			uuid.NewString(), orderID, l.ProductID, l.VariantID, l.Quantity,
			l.UnitCents, l.PromoCents, l.SubtotalCents, l.PromotionID)
		if err != nil {
			return "", fmt.Errorf("insert order line: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, p.UserID); err != nil {
		return "", fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return orderID, nil
}
