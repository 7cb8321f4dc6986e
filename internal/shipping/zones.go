package shipping

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Zone struct {
	ID            int64
	District      string
	CostCents     int64
	EstimatedDays int32
	Active        bool
}

var ErrNotFound = errors.New("shipping: zone not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetZone(ctx context.Context, id int64) (Zone, error) {
	var z Zone
	err := r.DB.QueryRow(ctx, `
		SELECT id, district, cost_cents, estimated_days, active
		FROM delivery_zones WHERE id=$1`, id).
		Scan(&z.ID, &z.District, &z.CostCents, &z.EstimatedDays, &z.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Zone{}, ErrNotFound
	}
	return z, err
}
