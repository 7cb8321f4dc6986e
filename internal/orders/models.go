package orders

import "time"

type Order struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Name            string    `json:"name"`
	Surname         string    `json:"surname"`
	Address         *string   `json:"address,omitempty"`
	DeliveryZoneID  *int64    `json:"delivery_zone_id,omitempty"`
	ShippingCents   *int64    `json:"shipping_cents,omitempty"`
	PaymentMethodID int64     `json:"payment_method_id"`
	CardID          *int64    `json:"card_id,omitempty"`
	CourierID       *string   `json:"courier_id,omitempty"`
	Status          Status    `json:"status"`
	UserID          string    `json:"user_id"`
}

// IsDelivery distinguishes home delivery from store pickup.
func (o Order) IsDelivery() bool { return o.DeliveryZoneID != nil }

// Line prices are a frozen snapshot from checkout time.
type Line struct {
	ID            string `json:"id"`
	OrderID       string `json:"order_id"`
	ProductID     int64  `json:"product_id"`
	VariantID     int64  `json:"variant_id"`
	Quantity      int32  `json:"quantity"`
	UnitCents     int64  `json:"unit_cents"`
	PromoCents    int64  `json:"promo_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
	Status        string `json:"status"`
	PromotionID   *int64 `json:"promotion_id,omitempty"`
}
