package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/pkg/kvstore"
)

// Store is the cart of one visitor session. Totals are derived on every
// read and every mutation is persisted before it returns.
type Store struct {
	kv        kvstore.KeyValueStore
	sessionID string
	logger    logrus.FieldLogger

	items []LineItem
	plan  *Plan
}

// Load hydrates the cart of sessionID. Missing or corrupt persisted data
// yields an empty cart; only backend failures are returned.
func Load(ctx context.Context, kv kvstore.KeyValueStore, sessionID string, logger logrus.FieldLogger) (*Store, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID required for cart")
	}

	s := &Store{
		kv:        kv,
		sessionID: sessionID,
		logger:    logger.WithField("session_id", sessionID),
		items:     []LineItem{},
	}

	var items []LineItem
	switch err := kvstore.GetJSON(ctx, kv, itemsKey(sessionID), &items); {
	case err == nil:
		s.items = sanitize(items)
	case errors.Is(err, kvstore.ErrNotFound):
	case errors.Is(err, kvstore.ErrCorrupt):
		s.logger.WithError(err).Warn("discarding unreadable cart items")
	default:
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	var plan *Plan
	switch err := kvstore.GetJSON(ctx, kv, planKey(sessionID), &plan); {
	case err == nil:
		s.plan = plan
	case errors.Is(err, kvstore.ErrNotFound):
	case errors.Is(err, kvstore.ErrCorrupt):
		s.logger.WithError(err).Warn("discarding unreadable selected plan")
	default:
		return nil, fmt.Errorf("failed to load selected plan: %w", err)
	}

	return s, nil
}

// sanitize drops entries without an id, quantity or valid price and merges
// duplicate ids that may have been written by hand.
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			continue
		}
		if i, ok := index[item.ID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}
	return out
}

// SessionID returns the owning session
func (s *Store) SessionID() string {
	return s.sessionID
}

// AddLineItem increments the quantity of item.ID by one, inserting it with
// quantity 1 when absent. The unit price of an existing entry is refreshed.
func (s *Store) AddLineItem(ctx context.Context, item LineItem) error {
	if i := s.find(item.ID); i >= 0 {
		s.items[i].Quantity++
		s.items[i].UnitPrice = item.UnitPrice
		if item.Name != "" {
			s.items[i].Name = item.Name
		}
	} else {
		item.Quantity = 1
		s.items = append(s.items, item)
	}
	return s.persistItems(ctx)
}

// RemoveLineItem decrements the quantity of id by one and deletes the entry
// when it reaches zero. Unknown ids are ignored.
func (s *Store) RemoveLineItem(ctx context.Context, id string) error {
	i := s.find(id)
	if i < 0 {
		return nil
	}
	s.items[i].Quantity--
	if s.items[i].Quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return s.persistItems(ctx)
}

// SetLineItemQuantity sets an exact quantity; below 1 removes the entry.
// Unknown ids are ignored.
func (s *Store) SetLineItemQuantity(ctx context.Context, id string, quantity int) error {
	i := s.find(id)
	if i < 0 {
		return nil
	}
	if quantity < 1 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	} else {
		s.items[i].Quantity = quantity
	}
	return s.persistItems(ctx)
}

// SelectPlan replaces the selected plan; nil clears it
func (s *Store) SelectPlan(ctx context.Context, plan *Plan) error {
	if plan != nil {
		p := *plan
		plan = &p
	}
	s.plan = plan
	return s.persistPlan(ctx)
}

// Clear empties the cart and removes both persisted keys
func (s *Store) Clear(ctx context.Context) error {
	s.items = []LineItem{}
	s.plan = nil
	if err := s.kv.Delete(ctx, itemsKey(s.sessionID), planKey(s.sessionID)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Items returns a copy of the line items in insertion order
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Plan returns a copy of the selected plan or nil
func (s *Store) Plan() *Plan {
	if s.plan == nil {
		return nil
	}
	p := *s.plan
	return &p
}

// Totals recomputes the derived totals
func (s *Store) Totals() Totals {
	return ComputeTotals(s.items, s.plan)
}

// Snapshot returns items, plan and totals
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Items:  s.Items(),
		Plan:   s.Plan(),
		Totals: s.Totals(),
	}
}

func (s *Store) find(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistItems(ctx context.Context) error {
	if err := kvstore.SetJSON(ctx, s.kv, itemsKey(s.sessionID), s.items); err != nil {
		return fmt.Errorf("failed to save cart items: %w", err)
	}
	return nil
}

func (s *Store) persistPlan(ctx context.Context) error {
	if s.plan == nil {
		if err := s.kv.Delete(ctx, planKey(s.sessionID)); err != nil {
			return fmt.Errorf("failed to clear selected plan: %w", err)
		}
		return nil
	}
	if err := kvstore.SetJSON(ctx, s.kv, planKey(s.sessionID), s.plan); err != nil {
		return fmt.Errorf("failed to save selected plan: %w", err)
	}
	return nil
}
