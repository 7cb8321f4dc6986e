package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PLManuel/Mitikas-sub000/internal/catalog"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
	"github.com/PLManuel/Mitikas-sub000/internal/promo"
)

// Repos behind interfaces so the pricing and validation rules are testable
// without a database.
type Store interface {
	ListPriced(ctx context.Context, userID string) ([]StoredItem, error)
	Upsert(ctx context.Context, userID string, in AddInput) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	UpdateQuantity(ctx context.Context, id int64, qty int32) error
	UpdatePromotion(ctx context.Context, id int64, promotionID *int64) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context, userID string) error
	MergeAll(ctx context.Context, userID string, items []AddInput) error
}

type Catalog interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	GetVariant(ctx context.Context, id int64) (catalog.Variant, error)
}

type Promotions interface {
	Get(ctx context.Context, id int64) (promo.Promotion, error)
	IsLinked(ctx context.Context, promotionID, variantID int64) (bool, error)
}

// Resolver finds the promotion currently applicable to a variant, for
// items the customer added without picking one explicitly.
type Resolver interface {
	Resolve(ctx context.Context, variantID int64, asOf time.Time) (*promo.Promotion, error)
}

type Service struct {
	Store    Store
	Catalog  Catalog
	Promos   Promotions
	Resolver Resolver
	Now      func() time.Time
}

func NewService(store Store, cat Catalog, promos Promotions, res Resolver) *Service {
	return &Service{Store: store, Catalog: cat, Promos: promos, Resolver: res, Now: time.Now}
}

// View prices every item against the current variant price: the stored
// promotion when one was applied, the resolved current promotion when
// none was. A referenced promotion that is no longer active or outside
// its window prices as undiscounted.
func (s *Service) View(ctx context.Context, userID string) (View, error) {
	stored, err := s.Store.ListPriced(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("list cart: %w", err)
	}
	now := s.Now()
	for i := range stored {
		if stored[i].PromotionID != nil {
			continue
		}
		p, err := s.Resolver.Resolve(ctx, stored[i].VariantID, now)
		if err != nil {
			return View{}, fmt.Errorf("resolve promotion: %w", err)
		}
		stored[i].Promotion = p
	}
	return Price(stored, now), nil
}

// Price is the pure pricing pass over stored items.
func Price(stored []StoredItem, asOf time.Time) View {
	v := View{Items: make([]PricedItem, 0, len(stored))}
	for _, it := range stored {
		p := PricedItem{StoredItem: it, DiscountedCents: it.UnitCents}
		if it.Promotion != nil && it.Promotion.AppliesAt(asOf) {
			p.DiscountedCents = it.Promotion.DiscountedCents(it.UnitCents)
		}
		qty := int64(it.Quantity)
		p.SubtotalCents = p.DiscountedCents * qty
		p.DiscountCents = (it.UnitCents - p.DiscountedCents) * qty

		v.Items = append(v.Items, p)
		v.Summary.ItemCount++
		v.Summary.UnitCount += it.Quantity
		v.Summary.SubtotalCents += it.UnitCents * qty
		v.Summary.DiscountCents += p.DiscountCents
	}
	v.Summary.TotalCents = v.Summary.SubtotalCents - v.Summary.DiscountCents
	return v
}

// Add validates and upserts. An existing (user, variant) row gets its
// quantity incremented and its promotion re-stamped with this call's value,
// null included: adding again without a promotion drops the stored one.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (Item, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return Item{}, fault.Invalid("quantity must be a positive integer")
	}
	if err := s.validateTarget(ctx, in); err != nil {
		return Item{}, err
	}
	it, err := s.Store.Upsert(ctx, userID, in)
	if err != nil {
		return Item{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return it, nil
}

func (s *Service) validateTarget(ctx context.Context, in AddInput) error {
	p, err := s.Catalog.GetProduct(ctx, in.ProductID)
	if errors.Is(err, catalog.ErrNotFound) {
		return fault.NotFound("product %d not found", in.ProductID)
	}
	if err != nil {
		return err
	}
	if !p.Active {
		return fault.Invalid("product %d is not active", in.ProductID)
	}
	v, err := s.Catalog.GetVariant(ctx, in.VariantID)
	if errors.Is(err, catalog.ErrNotFound) {
		return fault.NotFound("variant %d not found", in.VariantID)
	}
	if err != nil {
		return err
	}
	if !v.Active {
		return fault.Invalid("variant %d is not active", in.VariantID)
	}
	if v.ProductID != in.ProductID {
		return fault.Invalid("variant %d does not belong to product %d", in.VariantID, in.ProductID)
	}
	if in.PromotionID != nil {
		if err := s.validatePromotion(ctx, *in.PromotionID, in.VariantID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) validatePromotion(ctx context.Context, promotionID, variantID int64) error {
	pr, err := s.Promos.Get(ctx, promotionID)
	if errors.Is(err, promo.ErrNotFound) {
		return fault.NotFound("promotion %d not found", promotionID)
	}
	if err != nil {
		return err
	}
	if !pr.Active {
		return fault.Invalid("promotion %d is not active", promotionID)
	}
	linked, err := s.Promos.IsLinked(ctx, promotionID, variantID)
	if err != nil {
		return err
	}
	if !linked {
		return fault.Invalid("promotion %d is not linked to variant %d", promotionID, variantID)
	}
	return nil
}

func (s *Service) SetQuantity(ctx context.Context, userID string, itemID int64, qty int32) error {
	if qty <= 0 {
		return fault.Invalid("quantity must be greater than zero")
	}
	if err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	return s.Store.UpdateQuantity(ctx, itemID, qty)
}

// ApplyPromotion re-stamps the item's promotion reference; nil clears it.
func (s *Service) ApplyPromotion(ctx context.Context, userID string, itemID int64, promotionID *int64) error {
	it, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if promotionID != nil {
		if err := s.validatePromotion(ctx, *promotionID, it.VariantID); err != nil {
			return err
		}
	}
	return s.Store.UpdatePromotion(ctx, itemID, promotionID)
}

func (s *Service) Remove(ctx context.Context, userID string, itemID int64) error {
	if err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	return s.Store.Delete(ctx, itemID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.Store.Clear(ctx, userID)
}

// MergeLocal reconciles an anonymous local cart into the account cart: on
// a variant conflict quantities sum, otherwise the item is created. Every
// item is validated up front and the writes run in one transaction, so a
// failure leaves the account cart untouched and the caller keeps its local
// copy.
func (s *Service) MergeLocal(ctx context.Context, userID string, items []AddInput) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].Quantity == 0 {
			items[i].Quantity = 1
		}
		if items[i].Quantity < 0 {
			return fault.Invalid("quantity must be a positive integer")
		}
		if err := s.validateTarget(ctx, items[i]); err != nil {
			return err
		}
	}
	if err := s.Store.MergeAll(ctx, userID, items); err != nil {
		return fmt.Errorf("merge local cart: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID string, itemID int64) error {
	_, err := s.ownedItem(ctx, userID, itemID)
	return err
}

func (s *Service) ownedItem(ctx context.Context, userID string, itemID int64) (Item, error) {
	it, err := s.Store.GetItem(ctx, itemID)
	if errors.Is(err, ErrNotFound) {
		return Item{}, fault.NotFound("cart item %d not found", itemID)
	}
	if err != nil {
		return Item{}, err
	}
	if it.UserID != userID {
		return Item{}, fault.Forbidden("cart item %d does not belong to you", itemID)
	}
	return it, nil
}
