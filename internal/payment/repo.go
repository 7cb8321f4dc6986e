package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("payment: not found")
	ErrInsufficientFunds = errors.New("payment: insufficient funds")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetMethod(ctx context.Context, id int64) (PaymentMethod, error) {
	var m PaymentMethod
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, kind, active FROM payment_methods WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Kind, &m.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentMethod{}, ErrNotFound
	}
	return m, err
}

func (r *Repo) GetCard(ctx context.Context, id int64) (Card, error) {
	var c Card
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, number, holder_name, expiry, cvv, balance_cents
		FROM cards WHERE id=$1`, id).
		Scan(&c.ID, &c.UserID, &c.Number, &c.HolderName, &c.Expiry, &c.CVV, &c.BalanceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	return c, err
}

// DebitTx locks the card row, re-checks the balance under the lock and
// debits. Runs inside the caller's transaction so a later failure rolls
// the debit back; the FOR UPDATE closes the double-spend window between
// concurrent checkouts on the same card.
func DebitTx(ctx context.Context, tx pgx.Tx, cardID int64, userID string, amountCents int64) error {
	var owner string
	var balance int64
	err := tx.QueryRow(ctx,
		`SELECT user_id, balance_cents FROM cards WHERE id=$1 FOR UPDATE`, cardID).
		Scan(&owner, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrNotFound
	}
	if balance < amountCents {
		return ErrInsufficientFunds
	}
	_, err = tx.Exec(ctx,
		`UPDATE cards SET balance_cents = balance_cents - $2 WHERE id=$1`, cardID, amountCents)
	return err
}
