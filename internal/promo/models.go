package promo

import "time"

type Kind string

const (
	KindPercentage Kind = "percentage"
	KindFixedPrice Kind = "fixed_price"
)

// Promotion is a time-boxed discount rule over a set of variants. Value is
// a percent for percentage promotions and a price in cents for fixed_price.
type Promotion struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Value     int64     `json:"value"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Active    bool      `json:"active"`
}

// AppliesAt reports whether the promotion window covers t. Bounds are
// inclusive on both ends.
func (p Promotion) AppliesAt(t time.Time) bool {
	return p.Active && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// DiscountedCents computes the promotional unit price. A fixed price above
// the base is accepted as-is; nothing clamps the result.
func (p Promotion) DiscountedCents(baseCents int64) int64 {
	switch p.Kind {
	case KindPercentage:
		return baseCents * (100 - p.Value) / 100
	case KindFixedPrice:
		return p.Value
	default:
		return baseCents
	}
}
