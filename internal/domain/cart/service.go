// internal/domain/cart/service.go
package cart

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/catalog"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
	"github.com/your-org/studio-storefront/internal/pkg/kvstore"
)

const lockStripes = 64

// Service handles cart business logic for HTTP handlers
type Service struct {
	kv      kvstore.KeyValueStore
	catalog *catalog.Catalog
	logger  logrus.FieldLogger

	// serializes load, mutate and persist per session
	locks [lockStripes]sync.Mutex
}

// NewService creates a new cart service
func NewService(kv kvstore.KeyValueStore, cat *catalog.Catalog, logger logrus.FieldLogger) *Service {
	return &Service{
		kv:      kv,
		catalog: cat,
		logger:  logger,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ID    string          `json:"id" binding:"required"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart retrieves the cart for a session
func (s *Service) GetCart(ctx context.Context, sessionID string) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, nil)
}

// AddToCart adds one unit of an add-on. Catalog prices win over the price
// sent by the client; unknown ids keep the client's price.
func (s *Service) AddToCart(ctx context.Context, sessionID string, req *AddToCartRequest) (*Snapshot, error) {
	item := LineItem{ID: req.ID, Name: req.Name, UnitPrice: req.Price}
	if addOn, ok := s.catalog.AddOn(req.ID); ok {
		item.UnitPrice = addOn.Amount()
		if item.Name == "" {
			item.Name = addOn.Name
		}
	} else {
		s.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"item_id":    req.ID,
		}).Warn("add-on not in catalog, using client price")
	}
	if item.UnitPrice.IsNegative() {
		item.UnitPrice = decimal.Zero
	}

	return s.mutate(ctx, sessionID, func(st *Store) error {
		return st.AddLineItem(ctx, item)
	})
}

// RemoveFromCart removes one unit of an item
func (s *Service) RemoveFromCart(ctx context.Context, sessionID, itemID string) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, func(st *Store) error {
		return st.RemoveLineItem(ctx, itemID)
	})
}

// UpdateCartItem sets the exact quantity of an item
func (s *Service) UpdateCartItem(ctx context.Context, sessionID, itemID string, req *UpdateCartItemRequest) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, func(st *Store) error {
		return st.SetLineItemQuantity(ctx, itemID, *req.Quantity)
	})
}

// SelectPlan replaces the selected plan; nil clears it. A catalog plan keeps
// the catalog price even if the client sent another one.
func (s *Service) SelectPlan(ctx context.Context, sessionID string, plan *Plan) (*Snapshot, error) {
	if plan != nil {
		if known, ok := s.catalog.Plan(plan.Name); ok {
			listed := decimal.NewFromFloat(known.Price)
			if !NormalizePlanPrice(plan).Equal(listed) {
				s.logger.WithFields(logrus.Fields{
					"session_id": sessionID,
					"plan":       plan.Name,
					"sent":       plan.Price.String(),
				}).Warn("plan price differs from catalog, using catalog price")
				plan.Price = pricing.NewPrice(listed)
			}
			if len(plan.Features) == 0 {
				plan.Features = known.Features
			}
			if plan.DeliveryTime == "" {
				plan.DeliveryTime = known.DeliveryTime
			}
			if plan.Revisions == "" {
				plan.Revisions = known.Revisions
			}
		}
	}
	return s.mutate(ctx, sessionID, func(st *Store) error {
		return st.SelectPlan(ctx, plan)
	})
}

// ClearCart removes all items and the selected plan
func (s *Service) ClearCart(ctx context.Context, sessionID string) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, func(st *Store) error {
		return st.Clear(ctx)
	})
}

// GetCartItemCount returns the number of units plus one for a selected plan
func (s *Service) GetCartItemCount(ctx context.Context, sessionID string) (int, error) {
	snap, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return snap.Totals.ItemCount, nil
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*Store) error) (*Snapshot, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	st, err := Load(ctx, s.kv, sessionID, s.logger)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(st); err != nil {
			return nil, err
		}
	}
	snap := st.Snapshot()
	return &snap, nil
}

func (s *Service) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}
