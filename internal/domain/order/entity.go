// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/studio-storefront/internal/domain/cart"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// ProjectStatus tracks the second (final) payment of a project
type ProjectStatus string

const (
	ProjectStatusAwaitingFinalPayment ProjectStatus = "awaiting_final_payment"
	ProjectStatusFinalPaymentPending  ProjectStatus = "final_payment_pending"
	ProjectStatusPaid                 ProjectStatus = "paid"
)

// CustomerInfo holds the answers the visitor gave before checkout.
// Keys are whatever the intake form sends.
type CustomerInfo map[string]interface{}

// Email returns the first non-empty email-like field
func (c CustomerInfo) Email() string {
	return c.stringField("email", "customerEmail", "customer_email")
}

// Name returns the customer's display name if one was given
func (c CustomerInfo) Name() string {
	return c.stringField("name", "fullName", "full_name", "customerName")
}

func (c CustomerInfo) stringField(keys ...string) string {
	for _, k := range keys {
		if v, ok := c[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Order is the deposit order. The same value is kept as the pending and
// completed snapshot of a session and as the durable row.
type Order struct {
	ID                 string      `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber        string      `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	SessionID          string      `gorm:"index;not null;size:64" json:"session_id"`
	ProcessorSessionID string      `gorm:"index;size:255" json:"processor_session_id,omitempty"`
	Status             OrderStatus `gorm:"not null;default:'pending';size:20" json:"status"`

	Plan     *cart.Plan         `gorm:"type:jsonb;serializer:json" json:"plan"`
	Items    []pricing.LineItem `gorm:"type:jsonb;serializer:json" json:"items"`
	Customer CustomerInfo       `gorm:"type:jsonb;serializer:json" json:"customer"`

	// Financial Information, whole currency units
	BasePrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"base_price"`
	AddOnsTotal decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"add_ons_total"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Deposit     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"deposit"`
	Remaining   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"remaining"`
	Currency    string          `gorm:"size:3;default:'usd'" json:"currency"`

	// Price ids that were sent to the processor, plan first
	PriceIDs []string `gorm:"type:jsonb;serializer:json" json:"price_ids"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// Project is a completed deposit order awaiting its final payment
type Project struct {
	ID               string          `gorm:"primaryKey;size:64" json:"id"`
	OrderID          string          `gorm:"index;size:36" json:"order_id,omitempty"`
	CustomerEmail    string          `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerName     string          `gorm:"size:255" json:"customer_name,omitempty"`
	RemainingBalance decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"remaining_balance"`
	Currency         string          `gorm:"size:3;default:'usd'" json:"currency"`
	Status           ProjectStatus   `gorm:"not null;default:'awaiting_final_payment';size:30" json:"status"`
	FinalSessionID   string          `gorm:"index;size:255" json:"final_session_id,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// TableName overrides
func (Order) TableName() string   { return "orders" }
func (Project) TableName() string { return "projects" }

// NewOrder creates a pending order with a fresh id and order number
func NewOrder(sessionID string, now time.Time) *Order {
	id := uuid.New().String()
	return &Order{
		ID:          id,
		OrderNumber: GenerateOrderNumber(id, now),
		SessionID:   sessionID,
		Status:      OrderStatusPending,
		Customer:    CustomerInfo{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GenerateOrderNumber formats WEB-YYYYMMDD-XXXXXXXX from the order id
func GenerateOrderNumber(id string, now time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("WEB-%s-%s", now.UTC().Format("20060102"), short)
}

// MarkPaid stamps the order as paid by the given processor session
func (o *Order) MarkPaid(processorSessionID string, at time.Time) {
	o.Status = OrderStatusPaid
	o.ProcessorSessionID = processorSessionID
	o.PaidAt = &at
	o.UpdatedAt = at
}

// IsPaid checks if the deposit was paid
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// PlanName returns the selected plan name or an empty string
func (o *Order) PlanName() string {
	if o.Plan == nil {
		return ""
	}
	return o.Plan.Name
}

// CanStartFinalPayment reports whether a final checkout may be opened
func (p *Project) CanStartFinalPayment() bool {
	return p.Status != ProjectStatusPaid && p.RemainingBalance.IsPositive()
}
