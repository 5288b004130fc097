// internal/domain/checkout/service.go
package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/cart"
	"github.com/your-org/studio-storefront/internal/domain/catalog"
	"github.com/your-org/studio-storefront/internal/domain/intake"
	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
	"github.com/your-org/studio-storefront/internal/pkg/auth"
	"github.com/your-org/studio-storefront/internal/pkg/email"
	"github.com/your-org/studio-storefront/internal/pkg/kvstore"
)

// sessionPlaceholder is replaced by the processor with the real session id
const sessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// Values of the "kind" metadata on processor sessions
const (
	kindDeposit      = "deposit"
	kindFinalPayment = "final_payment"
)

// Mailer sends the customer emails of the checkout flow
type Mailer interface {
	SendDepositReceipt(ctx context.Context, to, name string, data email.DepositReceiptData) error
	SendFinalPaymentLink(ctx context.Context, to, name string, data email.FinalPaymentLinkData) error
	SendFinalPaymentPaid(ctx context.Context, to, name string, data email.FinalPaymentLinkData) error
}

// Notifier receives best-effort lead events
type Notifier interface {
	Notify(ctx context.Context, event string, payload interface{})
}

// ReceiptRenderer renders the PDF receipt of an order
type ReceiptRenderer interface {
	GenerateReceipt(o *order.Order) (*bytes.Buffer, error)
}

// Dependencies are the collaborators of the checkout service
type Dependencies struct {
	KV        kvstore.KeyValueStore
	Carts     *cart.Service
	Intake    *intake.Service
	Catalog   *catalog.Catalog
	Processor Processor
	Orders    order.Repository
	Links     *auth.PaymentLinkManager
	Mailer    Mailer
	Notifier  Notifier
	Receipts  ReceiptRenderer
	Logger    logrus.FieldLogger
}

// Options are the checkout settings taken from configuration
type Options struct {
	SiteURL        string
	VerifySessions bool
	Currency       string
	LinkTTL        time.Duration
}

// Service orchestrates deposit checkout, its completion and the final
// payment of a project
type Service struct {
	Dependencies
	opts Options
	now  func() time.Time
}

// NewService creates a new checkout service
func NewService(deps Dependencies, opts Options) *Service {
	if deps.Processor == nil {
		deps.Processor = UnavailableProcessor{Reason: "no processor configured"}
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if opts.Currency == "" {
		opts.Currency = deps.Catalog.Currency
	}
	return &Service{
		Dependencies: deps,
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Session is returned to the browser, which follows CheckoutURL
type Session struct {
	OrderID            string   `json:"order_id,omitempty"`
	OrderNumber        string   `json:"order_number,omitempty"`
	ProjectID          string   `json:"project_id,omitempty"`
	ProcessorSessionID string   `json:"processor_session_id"`
	CheckoutURL        string   `json:"checkout_url"`
	Quote              *Quote   `json:"quote,omitempty"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Quote computes the deposit for the session's current cart
func (s *Service) Quote(ctx context.Context, sessionID string) (*Quote, error) {
	snap, err := s.Carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q := ComputeQuote(snap.Plan, snap.Items)
	return &q, nil
}

// BeginCheckout snapshots the cart as a pending order and opens a hosted
// checkout session for the deposit. customer falls back to the stored
// intake answers when empty.
func (s *Service) BeginCheckout(ctx context.Context, sessionID string, customer order.CustomerInfo) (*Session, error) {
	snap, err := s.Carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	quote := ComputeQuote(snap.Plan, snap.Items)
	lines, warnings := s.mapLines(snap.Plan, snap.Items)
	log := s.Logger.WithField("session_id", sessionID)
	for _, w := range warnings {
		log.Warn(w)
	}

	if len(customer) == 0 {
		answers, err := s.Intake.Get(ctx, sessionID)
		if err != nil {
			log.WithError(err).Warn("failed to load intake answers")
		}
		customer = order.CustomerInfo(answers)
	}

	o := order.NewOrder(sessionID, s.now())
	o.Plan = snap.Plan
	o.Items = snap.Items
	o.Customer = customer
	o.BasePrice = quote.BasePrice
	o.AddOnsTotal = quote.AddOnsTotal
	o.Subtotal = quote.Subtotal
	o.Deposit = quote.Deposit
	o.Remaining = quote.Remaining
	o.Currency = s.opts.Currency
	for _, l := range lines {
		o.PriceIDs = append(o.PriceIDs, l.PriceID)
	}

	if err := kvstore.SetJSON(ctx, s.KV, pendingKey(sessionID), o); err != nil {
		return nil, fmt.Errorf("failed to save pending order: %w", err)
	}

	s.Notifier.Notify(ctx, "checkout_started", map[string]interface{}{
		"order_id":  o.ID,
		"plan":      o.PlanName(),
		"items":     o.Items,
		"customer":  o.Customer,
		"subtotal":  quote.Subtotal,
		"deposit":   quote.Deposit,
		"remaining": quote.Remaining,
	})

	ps, err := s.Processor.CreateSession(ctx, &SessionRequest{
		Lines:             lines,
		SuccessURL:        s.opts.SiteURL + "/checkout-success?session_id=" + sessionPlaceholder,
		CancelURL:         s.opts.SiteURL + "/checkout?canceled=true",
		ClientReferenceID: o.ID,
		CustomerEmail:     customer.Email(),
		Metadata: map[string]string{
			"order_id":     o.ID,
			"order_number": o.OrderNumber,
			"kind":         kindDeposit,
		},
	})
	if err != nil {
		return nil, processorError(err)
	}

	log.WithFields(logrus.Fields{
		"order_id":             o.ID,
		"processor_session_id": ps.ID,
		"deposit":              quote.Deposit.String(),
	}).Info("checkout started")

	return &Session{
		OrderID:            o.ID,
		OrderNumber:        o.OrderNumber,
		ProcessorSessionID: ps.ID,
		CheckoutURL:        ps.URL,
		Quote:              &quote,
		Warnings:           warnings,
	}, nil
}

// mapLines turns the plan and items into processor price lines. An unknown
// plan is charged as the fallback price, unknown items are skipped, and an
// empty list becomes a single fallback line.
func (s *Service) mapLines(plan *cart.Plan, items []pricing.LineItem) ([]PriceLine, []string) {
	var lines []PriceLine
	var warnings []string

	if plan != nil {
		id, ok := s.Catalog.PlanPriceID(plan.Name)
		if !ok {
			id = s.Catalog.FallbackID()
			warnings = append(warnings, fmt.Sprintf("no price id for plan %q, using fallback price", plan.Name))
		}
		lines = append(lines, PriceLine{PriceID: id, Quantity: 1})
	}

	for _, item := range items {
		id, ok := s.Catalog.AddOnPriceID(item.ID)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no price id for add-on %q, skipped", item.ID))
			continue
		}
		lines = append(lines, PriceLine{PriceID: id, Quantity: int64(item.Quantity)})
	}

	if len(lines) == 0 {
		lines = append(lines, PriceLine{PriceID: s.Catalog.FallbackID(), Quantity: 1})
		warnings = append(warnings, "nothing to charge, using fallback price")
	}
	return lines, warnings
}

// CompleteCheckout marks the pending order of the session as paid by the
// given processor session. Repeating the call for the same processor
// session returns the completed order.
func (s *Service) CompleteCheckout(ctx context.Context, sessionID, processorSessionID string) (*order.Order, error) {
	if processorSessionID == "" {
		return nil, ErrMissingSession
	}
	log := s.Logger.WithFields(logrus.Fields{
		"session_id":           sessionID,
		"processor_session_id": processorSessionID,
	})

	var o order.Order
	switch err := kvstore.GetJSON(ctx, s.KV, pendingKey(sessionID), &o); {
	case err == nil:
	case errors.Is(err, kvstore.ErrNotFound), errors.Is(err, kvstore.ErrCorrupt):
		if done, derr := s.CompletedOrder(ctx, sessionID); derr == nil && done.ProcessorSessionID == processorSessionID {
			return done, nil
		}
		if errors.Is(err, kvstore.ErrCorrupt) {
			log.WithError(err).Warn("discarding unreadable pending order")
		}
		return nil, ErrNoPendingOrder
	default:
		return nil, fmt.Errorf("failed to load pending order: %w", err)
	}

	if s.opts.VerifySessions {
		if err := s.verifyPaid(ctx, processorSessionID, o.ID, kindDeposit); err != nil {
			log.WithError(err).Warn("checkout session verification failed")
			return nil, err
		}
	}

	o.MarkPaid(processorSessionID, s.now())

	if err := s.Orders.SaveOrder(ctx, &o); err != nil {
		return nil, err
	}
	if err := kvstore.SetJSON(ctx, s.KV, completedKey(sessionID), &o); err != nil {
		return nil, fmt.Errorf("failed to save completed order: %w", err)
	}
	if err := s.KV.Delete(ctx, pendingKey(sessionID)); err != nil {
		return nil, fmt.Errorf("failed to clear pending order: %w", err)
	}

	if o.Remaining.IsPositive() {
		err := s.Orders.UpsertProject(ctx, &order.Project{
			ID:               o.ID,
			OrderID:          o.ID,
			CustomerEmail:    o.Customer.Email(),
			CustomerName:     o.Customer.Name(),
			RemainingBalance: o.Remaining,
			Currency:         o.Currency,
			Status:           order.ProjectStatusAwaitingFinalPayment,
			CreatedAt:        o.UpdatedAt,
			UpdatedAt:        o.UpdatedAt,
		})
		if err != nil {
			log.WithError(err).Error("failed to record project for final payment")
		}
	}

	log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"deposit":  o.Deposit.String(),
	}).Info("deposit paid")

	s.sendReceipt(ctx, &o)
	s.Notifier.Notify(ctx, "deposit_paid", map[string]interface{}{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"deposit":      o.Deposit,
		"remaining":    o.Remaining,
		"customer":     o.Customer,
	})

	return &o, nil
}

// verifyPaid asks the processor whether the session was paid for reference
// by the checkout of the given kind
func (s *Service) verifyPaid(ctx context.Context, processorSessionID, reference, kind string) error {
	ps, err := s.Processor.GetSession(ctx, processorSessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotPaid) {
			return err
		}
		return processorError(err)
	}
	if !ps.Paid {
		return ErrSessionNotPaid
	}
	if ps.ClientReferenceID != reference {
		return fmt.Errorf("%w: session belongs to another order", ErrSessionNotPaid)
	}
	if ps.Metadata["kind"] != kind {
		return fmt.Errorf("%w: session paid for %q, not %q", ErrSessionNotPaid, ps.Metadata["kind"], kind)
	}
	return nil
}

func (s *Service) sendReceipt(ctx context.Context, o *order.Order) {
	to := o.Customer.Email()
	if to == "" {
		return
	}

	data := email.DepositReceiptData{
		OrderNumber: o.OrderNumber,
		OrderDate:   o.CreatedAt.Format("January 2, 2006"),
		PlanName:    o.PlanName(),
		PlanPrice:   pricing.FormatCurrency(o.BasePrice),
		Subtotal:    pricing.FormatCurrency(o.Subtotal),
		Deposit:     pricing.FormatCurrency(o.Deposit),
		Remaining:   pricing.FormatCurrency(o.Remaining),
		OrderURL:    s.opts.SiteURL + "/checkout-success?session_id=" + url.QueryEscape(o.ProcessorSessionID),
	}
	for _, item := range o.Items {
		name := item.Name
		if name == "" {
			name = item.ID
		}
		data.Lines = append(data.Lines, email.ReceiptLine{
			Name:     name,
			Quantity: item.Quantity,
			Total:    pricing.FormatCurrency(pricing.LineItemTotal(item)),
		})
	}

	if err := s.Mailer.SendDepositReceipt(ctx, to, o.Customer.Name(), data); err != nil {
		s.Logger.WithError(err).WithField("order_id", o.ID).Warn("failed to send deposit receipt")
	}
}

// CompletedOrder returns the paid order of the session
func (s *Service) CompletedOrder(ctx context.Context, sessionID string) (*order.Order, error) {
	var o order.Order
	switch err := kvstore.GetJSON(ctx, s.KV, completedKey(sessionID), &o); {
	case err == nil:
		return &o, nil
	case errors.Is(err, kvstore.ErrNotFound), errors.Is(err, kvstore.ErrCorrupt):
		return nil, ErrNoCompletedOrder
	default:
		return nil, fmt.Errorf("failed to load completed order: %w", err)
	}
}

// ReceiptPDF renders the receipt of the session's paid order
func (s *Service) ReceiptPDF(ctx context.Context, sessionID string) (*bytes.Buffer, *order.Order, error) {
	o, err := s.CompletedOrder(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	buf, err := s.Receipts.GenerateReceipt(o)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf, o, nil
}

// FinalPaymentRequest identifies a completed project. Balance and contact
// fields override the stored project when set.
type FinalPaymentRequest struct {
	ProjectID     string           `json:"-"`
	Balance       *decimal.Decimal `json:"remaining_balance"`
	OrderID       string           `json:"order_id"`
	CustomerEmail string           `json:"customer_email"`
	CustomerName  string           `json:"customer_name"`
	SendEmail     bool             `json:"send_email"`
}

// FinalPaymentLink is the link for the remaining balance of a project
type FinalPaymentLink struct {
	ProjectID string          `json:"project_id"`
	Balance   decimal.Decimal `json:"remaining_balance"`
	URL       string          `json:"url"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// GenerateFinalPaymentLink records the project and its remaining balance and
// returns a signed link for the second checkout
func (s *Service) GenerateFinalPaymentLink(ctx context.Context, req *FinalPaymentRequest) (*FinalPaymentLink, error) {
	if req.ProjectID == "" {
		return nil, ErrProjectNotFound
	}

	project, err := s.Orders.FindProject(ctx, req.ProjectID)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrNotFound):
		if req.Balance == nil {
			return nil, ErrProjectNotFound
		}
		project = &order.Project{ID: req.ProjectID, Currency: s.opts.Currency, CreatedAt: s.now()}
	default:
		return nil, err
	}

	if project.Status == order.ProjectStatusPaid {
		return nil, ErrNothingDue
	}
	if req.Balance != nil {
		project.RemainingBalance = *req.Balance
	}
	if !project.RemainingBalance.IsPositive() {
		return nil, ErrNothingDue
	}
	if req.OrderID != "" {
		project.OrderID = req.OrderID
	}
	if req.CustomerEmail != "" {
		project.CustomerEmail = req.CustomerEmail
	}
	if req.CustomerName != "" {
		project.CustomerName = req.CustomerName
	}
	project.Status = order.ProjectStatusAwaitingFinalPayment
	project.UpdatedAt = s.now()

	if err := s.Orders.UpsertProject(ctx, project); err != nil {
		return nil, err
	}

	token, err := s.Links.Generate(project.ID, project.RemainingBalance)
	if err != nil {
		return nil, err
	}

	link := &FinalPaymentLink{
		ProjectID: project.ID,
		Balance:   project.RemainingBalance,
		URL: s.opts.SiteURL + "/checkout?" + url.Values{
			"project": {project.ID},
			"token":   {token},
		}.Encode(),
		ExpiresAt: s.now().Add(s.opts.LinkTTL),
	}

	s.Logger.WithFields(logrus.Fields{
		"project_id": project.ID,
		"balance":    project.RemainingBalance.String(),
	}).Info("final payment link generated")

	if req.SendEmail && project.CustomerEmail != "" {
		err := s.Mailer.SendFinalPaymentLink(ctx, project.CustomerEmail, project.CustomerName, email.FinalPaymentLinkData{
			ProjectID: project.ID,
			Balance:   pricing.FormatCurrency(project.RemainingBalance),
			PayURL:    link.URL,
			ExpiresOn: link.ExpiresAt.Format("January 2, 2006"),
		})
		if err != nil {
			s.Logger.WithError(err).WithField("project_id", project.ID).Warn("failed to send final payment link")
		}
	}

	return link, nil
}

// BeginFinalPayment opens a hosted checkout session for the remaining
// balance named by a final payment link
func (s *Service) BeginFinalPayment(ctx context.Context, token string) (*Session, error) {
	claims, err := s.Links.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPaymentLink, err)
	}

	project, err := s.Orders.FindProject(ctx, claims.ProjectID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if !project.CanStartFinalPayment() {
		return nil, ErrNothingDue
	}
	if !claims.Balance.Equal(project.RemainingBalance) {
		return nil, fmt.Errorf("%w: balance changed since the link was issued", ErrInvalidPaymentLink)
	}

	currency := project.Currency
	if currency == "" {
		currency = s.opts.Currency
	}

	ps, err := s.Processor.CreateSession(ctx, &SessionRequest{
		AdHoc: []AdHocLine{{
			Name:        "Final payment - project " + project.ID,
			AmountCents: pricing.ToCents(project.RemainingBalance),
			Currency:    currency,
			Quantity:    1,
		}},
		SuccessURL:        s.opts.SiteURL + "/checkout-success?session_id=" + sessionPlaceholder + "&project=" + url.QueryEscape(project.ID),
		CancelURL:         s.opts.SiteURL + "/checkout?canceled=true&project=" + url.QueryEscape(project.ID),
		ClientReferenceID: project.ID,
		CustomerEmail:     project.CustomerEmail,
		Metadata: map[string]string{
			"project_id": project.ID,
			"kind":       kindFinalPayment,
		},
	})
	if err != nil {
		return nil, processorError(err)
	}

	if err := s.Orders.UpdateProjectStatus(ctx, project.ID, order.ProjectStatusFinalPaymentPending, ps.ID); err != nil {
		return nil, err
	}

	return &Session{
		ProjectID:          project.ID,
		ProcessorSessionID: ps.ID,
		CheckoutURL:        ps.URL,
	}, nil
}

// CompleteFinalPayment marks a project paid after the second checkout
func (s *Service) CompleteFinalPayment(ctx context.Context, projectID, processorSessionID string) (*order.Project, error) {
	if processorSessionID == "" {
		return nil, ErrMissingSession
	}

	project, err := s.Orders.FindProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if project.Status == order.ProjectStatusPaid && project.FinalSessionID == processorSessionID {
		return project, nil
	}
	if project.Status != order.ProjectStatusFinalPaymentPending {
		return nil, ErrNoPendingOrder
	}
	log := s.Logger.WithFields(logrus.Fields{
		"project_id":           project.ID,
		"processor_session_id": processorSessionID,
	})
	if processorSessionID != project.FinalSessionID {
		log.Warn("final payment return for a session that was not opened for this project")
		return nil, fmt.Errorf("%w: not the final checkout of this project", ErrSessionNotPaid)
	}

	if s.opts.VerifySessions {
		if err := s.verifyPaid(ctx, processorSessionID, project.ID, kindFinalPayment); err != nil {
			log.WithError(err).Warn("final checkout session verification failed")
			return nil, err
		}
	}

	if err := s.Orders.UpdateProjectStatus(ctx, project.ID, order.ProjectStatusPaid, processorSessionID); err != nil {
		return nil, err
	}
	project, err = s.Orders.FindProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	log.Info("final payment received")

	if project.CustomerEmail != "" {
		err := s.Mailer.SendFinalPaymentPaid(ctx, project.CustomerEmail, project.CustomerName, email.FinalPaymentLinkData{
			ProjectID: project.ID,
			Balance:   pricing.FormatCurrency(project.RemainingBalance),
		})
		if err != nil {
			s.Logger.WithError(err).WithField("project_id", project.ID).Warn("failed to send final payment confirmation")
		}
	}
	s.Notifier.Notify(ctx, "final_payment_paid", map[string]interface{}{
		"project_id": project.ID,
		"amount":     project.RemainingBalance,
	})

	return project, nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, interface{}) {}

func processorError(err error) error {
	if errors.Is(err, ErrProcessorUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrProcessorUnavailable, err)
}

func pendingKey(sessionID string) string {
	return "order:" + sessionID + ":pending"
}

func completedKey(sessionID string) string {
	return "order:" + sessionID + ":completed"
}
