package cart

import "github.com/PLManuel/Mitikas-sub000/internal/promo"

// Item is the stored row: one per (user, variant). Price and discount are
// never stored, they are recomputed on every read.
type Item struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	ProductID   int64  `json:"product_id"`
	VariantID   int64  `json:"variant_id"`
	Quantity    int32  `json:"quantity"`
	PromotionID *int64 `json:"promotion_id,omitempty"`
}

// StoredItem joins an Item to the current variant price and the live state
// of its referenced promotion, if any.
type StoredItem struct {
	Item
	ProductName string           `json:"product_name"`
	VariantName string           `json:"variant_name"`
	UnitCents   int64            `json:"unit_cents"`
	Promotion   *promo.Promotion `json:"promotion,omitempty"`
}

// PricedItem is a StoredItem after discount evaluation.
type PricedItem struct {
	StoredItem
	DiscountedCents int64 `json:"discounted_cents"`
	SubtotalCents   int64 `json:"subtotal_cents"`
	DiscountCents   int64 `json:"discount_cents"`
}

type Summary struct {
	ItemCount     int   `json:"item_count"`
	UnitCount     int32 `json:"unit_count"`
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

type View struct {
	Items   []PricedItem `json:"items"`
	Summary Summary      `json:"summary"`
}

// AddInput is one add-to-cart request, also the shape of a locally held
// anonymous item at merge time.
type AddInput struct {
	ProductID   int64  `json:"product_id"`
	VariantID   int64  `json:"variant_id"`
	Quantity    int32  `json:"quantity"`
	PromotionID *int64 `json:"promotion_id"`
}
