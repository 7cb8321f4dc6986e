package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PLManuel/Mitikas-sub000/internal/cart"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
	"github.com/PLManuel/Mitikas-sub000/internal/payment"
	"github.com/PLManuel/Mitikas-sub000/internal/shipping"
)

type Input struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	PaymentMethodID int64  `json:"payment_method_id"`
	SimulatedCardID *int64 `json:"simulated_card_id"`
	DeliveryZoneID  *int64 `json:"delivery_zone_id"`
	Address         string `json:"address"`
}

type Result struct {
	OrderID         string `json:"order_id"`
	SubtotalCents   int64  `json:"subtotal_cents"`
	DiscountCents   int64  `json:"discount_cents"`
	TotalCents      int64  `json:"total_cents"`
	ShippingCents   int64  `json:"shipping_cents"`
	GrandTotalCents int64  `json:"grand_total_cents"`
	PaymentKind     string `json:"payment_kind"`
}

/// Line is a frozen snapshot of a cart item: unlike the cart, these prices
// never change once written.
type Line struct {
	ProductID     int64
	VariantID     int64
	Quantity      int32
	UnitCents     int64
	PromoCents    int64
	SubtotalCents int64
	PromotionID   *int64
}

type Placement struct {
	UserID          string
	Name            string
	Surname         string
	Address         *string
	DeliveryZoneID  *int64
	ShippingCents   *int64
	Method          payment.Method
	GrandTotalCents int64
	Lines           []Line
}

type CartReader interface {
	View(ctx context.Context, userID string) (cart.View, error)
}

type Payments interface {
	GetMethod(ctx context.Context, id int64) (payment.PaymentMethod, error)
	GetCard(ctx context.Context, id int64) (payment.Card, error)
}

type Zones interface {
	GetZone(ctx context.Context, id int64) (shipping.Zone, error)
}

type Placer interface {
	PlaceOrder(ctx context.Context, p Placement) (string, error)
}

type Service struct {
	Cart     CartReader
	Payments Payments
	Zones    Zones
	Orders   Placer
}

// PlaceOrder runs the precondition chain of the checkout and, if it all
// holds, hands the repo an atomic placement. Totals are taken verbatim
// from the cart summary at this instant; shipping is added on top.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in Input) (Result, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Surname) == "" {
		return Result{}, fault.Invalid("name and surname are required")
	}
	if in.PaymentMethodID == 0 {
		return Result{}, fault.Invalid("payment method is required")
	}

	pm, err := s.Payments.GetMethod(ctx, in.PaymentMethodID)
	if errors.Is(err, payment.ErrNotFound) {
		return Result{}, fault.NotFound("payment method %d not found", in.PaymentMethodID)
	}
	if err != nil {
		return Result{}, err
	}
	if !pm.Active {
		return Result{}, fault.Invalid("payment method %d is not active", in.PaymentMethodID)
	}

	view, err := s.Cart.View(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("read cart: %w", err)
	}
	if len(view.Items) == 0 {
		return Result{}, fault.Invalid("cart is empty")
	}

	p := Placement{
		UserID:  userID,
		Name:    strings.TrimSpace(in.Name),
		Surname: strings.TrimSpace(in.Surname),
	}

	res := Result{
		SubtotalCents: view.Summary.SubtotalCents,
		DiscountCents: view.Summary.DiscountCents,
		TotalCents:    view.Summary.TotalCents,
	}

	// home delivery needs an active zone and an address; pickup carries
	// neither address nor shipping cost
	if in.DeliveryZoneID != nil {
		zone, err := s.Zones.GetZone(ctx, *in.DeliveryZoneID)
		if errors.Is(err, shipping.ErrNotFound) {
			return Result{}, fault.NotFound("delivery zone %d not found", *in.DeliveryZoneID)
		}
		if err != nil {
			return Result{}, err
		}
		if !zone.Active {
			return Result{}, fault.Invalid("delivery zone %d is not active", *in.DeliveryZoneID)
		}
		if strings.TrimSpace(in.Address) == "" {
			return Result{}, fault.Invalid("address is required for home delivery")
		}
		addr := strings.TrimSpace(in.Address)
		p.Address = &addr
		p.DeliveryZoneID = in.DeliveryZoneID
		p.ShippingCents = &zone.CostCents
		res.ShippingCents = zone.CostCents
	}

	res.GrandTotalCents = res.TotalCents + res.ShippingCents
	p.GrandTotalCents = res.GrandTotalCents

	switch pm.Kind {
	case payment.KindCard:
		if in.SimulatedCardID == nil {
			return Result{}, fault.Invalid("a simulated card is required for this payment method")
		}
		card, err := s.Payments.GetCard(ctx, *in.SimulatedCardID)
		if errors.Is(err, payment.ErrNotFound) {
			return Result{}, fault.NotFound("card %d not found", *in.SimulatedCardID)
		}
		if err != nil {
			return Result{}, err
		}
		if card.UserID != userID {
			return Result{}, fault.Forbidden("card %d does not belong to you", *in.SimulatedCardID)
		}
		if card.BalanceCents < res.GrandTotalCents {
			return Result{}, fault.Conflict("insufficient card balance")
		}
		p.Method = payment.SimulatedCard(pm.ID, card.ID)
	default:
		p.Method = payment.Cash(pm.ID)
	}
	res.PaymentKind = string(p.Method.Kind)

	p.Lines = freeze(view.Items)

	orderID, err := s.Orders.PlaceOrder(ctx, p)
	if errors.Is(err, payment.ErrInsufficientFunds) {
		// lost the race against a concurrent checkout on the same card
		return Result{}, fault.Conflict("insufficient card balance")
	}
	if err != nil {
		return Result{}, fmt.Errorf("place order: %w", err)
	}
	res.OrderID = orderID
	return res, nil
}

func freeze(items []cart.PricedItem) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		out = append(out, Line{
			ProductID:     it.ProductID,
			VariantID:     it.VariantID,
			Quantity:      it.Quantity,
			UnitCents:     it.UnitCents,
			PromoCents:    it.DiscountedCents,
			SubtotalCents: it.SubtotalCents,
			PromotionID:   it.PromotionID,
		})
	}
	return out
}
