package backorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PLManuel/Mitikas-sub000/internal/auth"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
	"github.com/PLManuel/Mitikas-sub000/internal/orders"
)

type Store interface {
	ReportTx(ctx context.Context, orderID string, entries []Entry) (int, error)
	ListGrouped(ctx context.Context) ([]GroupedRow, error)
	ListForOrder(ctx context.Context, orderID string) ([]LineStatus, error)
	AdvanceTx(ctx context.Context, ids []string, to Status, receivedAt *time.Time) error
}

type OrderSource interface {
	Get(ctx context.Context, id string) (orders.Order, error)
}

type Service struct {
	Store  Store
	Orders OrderSource
	Now    func() time.Time
}

func NewService(store Store, os OrderSource) *Service {
	return &Service{Store: store, Orders: os, Now: time.Now}
}

// Report registers warehouse shortages for an order. Re-reporting a
// (order, variant) pair already on file is silently skipped.
func (s *Service) Report(ctx context.Context, actor auth.Identity, orderID string, entries []Entry) (int, error) {
	if err := requireRole(actor, auth.RoleWarehouse); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fault.Invalid("at least one shortage entry is required")
	}
	seen := map[int64]bool{}
	for _, e := range entries {
		if e.VariantID <= 0 {
			return 0, fault.Invalid("variant id is required")
		}
		if e.Quantity <= 0 {
			return 0, fault.Invalid("shortage quantity must be greater than zero")
		}
		if seen[e.VariantID] {
			return 0, fault.Invalid("variant %d listed twice in one report", e.VariantID)
		}
		seen[e.VariantID] = true
	}
	if _, err := s.Orders.Get(ctx, orderID); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return 0, fault.NotFound("order %s not found", orderID)
		}
		return 0, err
	}
	created, err := s.Store.ReportTx(ctx, orderID, entries)
	if err != nil {
		return 0, fmt.Errorf("report shortages: %w", err)
	}
	return created, nil
}

// Grouped is the logistics view over open shortages.
func (s *Service) Grouped(ctx context.Context, actor auth.Identity) ([]GroupedRow, error) {
	if err := requireRole(actor, auth.RoleLogistics); err != nil {
		return nil, err
	}
	return s.Store.ListGrouped(ctx)
}

// ForOrder is the per-line availability view warehouse uses before moving
// an order forward.
func (s *Service) ForOrder(ctx context.Context, actor auth.Identity, orderID string) ([]LineStatus, error) {
	if err := requireRole(actor, auth.RoleWarehouse, auth.RoleLogistics); err != nil {
		return nil, err
	}
	if _, err := s.Orders.Get(ctx, orderID); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return nil, fault.NotFound("order %s not found", orderID)
		}
		return nil, err
	}
	return s.Store.ListForOrder(ctx, orderID)
}

// Advance moves a batch of requests through the simulated supplier flow.
// All ids transition or none do.
func (s *Service) Advance(ctx context.Context, actor auth.Identity, ids []string, to Status, receivedAt *time.Time) error {
	if err := requireRole(actor, auth.RoleLogistics); err != nil {
		return err
	}
	if len(ids) == 0 {
		return fault.Invalid("at least one request id is required")
	}

	var recv *time.Time
	if to == StatusReceived {
		t := s.Now()
		if receivedAt != nil {
			t = *receivedAt
		}
		norm := NormalizeReceivedAt(t)
		recv = &norm
	}

	err := s.Store.AdvanceTx(ctx, ids, to, recv)
	if errors.Is(err, ErrMissingIDs) {
		return fault.NotFound("one or more backorder requests do not exist")
	}
	if err != nil {
		return fmt.Errorf("advance backorders: %w", err)
	}
	return nil
}

func requireRole(actor auth.Identity, want ...auth.Role) error {
	if actor.Role == auth.RoleAdmin {
		return nil
	}
	for _, r := range want {
		if actor.Role == r {
			return nil
		}
	}
	return fault.Forbidden("role %s cannot manage backorders", actor.Role)
}
