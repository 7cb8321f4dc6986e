package promo

import (
	"context"
	"time"
)

// Source lists the promotions linked to a variant, live state included.
type Source interface {
	LinkedTo(ctx context.Context, variantID int64) ([]Promotion, error)
}

type Resolver struct {
	Promos Source
}

// Resolve returns the promotion applicable to the variant at asOf, or nil.
// The data model allows a variant to sit in several simultaneously active
// promotions; ties break deterministically on the lowest promotion id.
func (r *Resolver) Resolve(ctx context.Context, variantID int64, asOf time.Time) (*Promotion, error) {
	linked, err := r.Promos.LinkedTo(ctx, variantID)
	if err != nil {
		return nil, err
	}
	var best *Promotion
	for i := range linked {
		p := linked[i]
		if !p.AppliesAt(asOf) {
			continue
		}
		if best == nil || p.ID < best.ID {
			best = &linked[i]
		}
	}
	return best, nil
}
