// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
)

// LineItem is an add-on or service in the cart, unique by ID
type LineItem = pricing.LineItem

// Plan is the selected package. At most one is active per cart.
type Plan struct {
	Name         string        `json:"name"`
	Price        pricing.Price `json:"price"`
	Features     []string      `json:"features,omitempty"`
	DeliveryTime string        `json:"deliveryTime,omitempty"`
	Revisions    string        `json:"revisions,omitempty"`
}

// NormalizePlanPrice returns the numeric plan price, 0 when plan is nil
func NormalizePlanPrice(plan *Plan) decimal.Decimal {
	if plan == nil {
		return decimal.Zero
	}
	return pricing.NormalizePlanPrice(&plan.Price)
}

// Totals are derived from the cart contents and never stored
type Totals struct {
	CartTotal  decimal.Decimal `json:"cart_total"`
	PlanTotal  decimal.Decimal `json:"plan_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	ItemCount  int             `json:"item_count"`
}

// ComputeTotals derives totals from line items and the selected plan
func ComputeTotals(items []LineItem, plan *Plan) Totals {
	cartTotal := pricing.CartTotal(items)
	planTotal := NormalizePlanPrice(plan)

	count := pricing.TotalItemCount(items)
	if plan != nil {
		count++
	}

	return Totals{
		CartTotal:  cartTotal,
		PlanTotal:  planTotal,
		GrandTotal: cartTotal.Add(planTotal),
		ItemCount:  count,
	}
}

// Snapshot is a read-only copy of a cart with its totals
type Snapshot struct {
	Items  []LineItem `json:"items"`
	Plan   *Plan      `json:"plan"`
	Totals Totals     `json:"totals"`
}

func itemsKey(sessionID string) string {
	return "cart:" + sessionID + ":items"
}

func planKey(sessionID string) string {
	return "cart:" + sessionID + ":plan"
}
