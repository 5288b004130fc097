package checkout

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/studio-storefront/internal/domain/cart"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
)

var depositShare = decimal.RequireFromString("0.5")

// Quote is the split between what is charged now and what is due on
// completion
type Quote struct {
	BasePrice   decimal.Decimal `json:"base_price"`
	AddOnsTotal decimal.Decimal `json:"add_ons_total"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Deposit     decimal.Decimal `json:"deposit"`
	Remaining   decimal.Decimal `json:"remaining"`
	HasPlan     bool            `json:"has_plan"`
}

// ComputeQuote charges half of the plan plus all add-ons up front, rounded
// up to a whole unit. Without a plan everything is due now.
// deposit + remaining always equals the subtotal.
func ComputeQuote(plan *cart.Plan, items []pricing.LineItem) Quote {
	base := cart.NormalizePlanPrice(plan)
	addOns := pricing.CartTotal(items)
	subtotal := base.Add(addOns)

	q := Quote{
		BasePrice:   base,
		AddOnsTotal: addOns,
		Subtotal:    subtotal,
		Deposit:     subtotal,
		Remaining:   decimal.Zero,
		HasPlan:     plan != nil,
	}
	if plan != nil {
		q.Deposit = pricing.Ceil(base.Mul(depositShare).Add(addOns))
		q.Remaining = subtotal.Sub(q.Deposit)
		if q.Remaining.IsNegative() {
			q.Remaining = decimal.Zero
		}
	}
	return q
}
