package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

type StaffRepo struct{ DB *pgxpool.Pool }

// FindActiveCourier confirms the user exists, is active and holds the
// courier role before an order is put en route with them.
func (r *StaffRepo) FindActiveCourier(ctx context.Context, userID string) error {
	var role string
	var active bool
	err := r.DB.QueryRow(ctx,
		`SELECT role, active FROM users WHERE id=$1`, userID).Scan(&role, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return fault.NotFound("courier %s not found", userID)
	}
	if err != nil {
		return err
	}
	if Role(role) != RoleCourier || !active {
		return fault.Invalid("user %s is not an active courier", userID)
	}
	return nil
}
