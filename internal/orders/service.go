package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/PLManuel/Mitikas-sub000/internal/auth"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
)

type Store interface {
	Get(ctx context.Context, id string) (Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to Status, courierID *string) error
}

type Couriers interface {
	FindActiveCourier(ctx context.Context, userID string) error
}

// BackorderGate reports whether unresolved shortages still block the order.
type BackorderGate interface {
	HasBlocking(ctx context.Context, orderID string) (bool, error)
}

type Service struct {
	Store    Store
	Couriers Couriers
	Gate     BackorderGate
}

type Transition struct {
	OrderID string
	From    Status
	To      Status
}

// ChangeStatus applies one fulfillment transition on behalf of an explicit
// actor. The legality of the move comes from the transition graph, the
// permission from the actor's role, never from ambient state.
func (s *Service) ChangeStatus(ctx context.Context, actor auth.Identity, orderID string, target Status, courierID *string) (Transition, error) {
	o, err := s.Store.Get(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return Transition{}, fault.NotFound("order %s not found", orderID)
	}
	if err != nil {
		return Transition{}, err
	}
	if !CanTransition(o.Status, target) {
		return Transition{}, fault.Conflict("order is %s, cannot move to %s", o.Status, target)
	}

	var courier *string
	switch target {
	case StatusPreparing:
		if err := requireRole(actor, auth.RoleWarehouse); err != nil {
			return Transition{}, err
		}

	case StatusReadyForPickup:
		if err := requireRole(actor, auth.RoleWarehouse); err != nil {
			return Transition{}, err
		}
		if o.IsDelivery() {
			return Transition{}, fault.Invalid("order %s is a delivery order", orderID)
		}
		if err := s.requireNoShortages(ctx, orderID); err != nil {
			return Transition{}, err
		}

	case StatusEnRoute:
		if err := requireRole(actor, auth.RoleLogistics); err != nil {
			return Transition{}, err
		}
		if !o.IsDelivery() {
			return Transition{}, fault.Invalid("order %s is a pickup order", orderID)
		}
		if courierID == nil || *courierID == "" {
			return Transition{}, fault.Invalid("a courier must be assigned to put the order en route")
		}
		if err := s.Couriers.FindActiveCourier(ctx, *courierID); err != nil {
			return Transition{}, err
		}
		if err := s.requireNoShortages(ctx, orderID); err != nil {
			return Transition{}, err
		}
		courier = courierID

	case StatusDelivered:
		switch o.Status {
		case StatusReadyForPickup:
			if err := requireRole(actor, auth.RoleDispatcher); err != nil {
				return Transition{}, err
			}
		case StatusEnRoute:
			if err := requireRole(actor, auth.RoleCourier); err != nil {
				return Transition{}, err
			}
			if o.CourierID == nil || *o.CourierID != actor.UserID {
				return Transition{}, fault.Forbidden("order %s is assigned to another courier", orderID)
			}
		}
	}

	if err := s.Store.UpdateStatus(ctx, orderID, o.Status, target, courier); err != nil {
		if errors.Is(err, ErrStale) {
			return Transition{}, fault.Conflict("order %s changed concurrently, retry", orderID)
		}
		return Transition{}, fmt.Errorf("update status: %w", err)
	}
	return Transition{OrderID: orderID, From: o.Status, To: target}, nil
}

func (s *Service) requireNoShortages(ctx context.Context, orderID string) error {
	blocked, err := s.Gate.HasBlocking(ctx, orderID)
	if err != nil {
		return err
	}
	if blocked {
		return fault.Conflict("order %s has unresolved backorders", orderID)
	}
	return nil
}

func requireRole(actor auth.Identity, want auth.Role) error {
	if actor.Role != want && actor.Role != auth.RoleAdmin {
		return fault.Forbidden("role %s cannot perform this transition", actor.Role)
	}
	return nil
}
