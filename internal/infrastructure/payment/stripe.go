// internal/infrastructure/payment/stripe.go
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/your-org/studio-storefront/internal/config"
	"github.com/your-org/studio-storefront/internal/domain/checkout"
)

// StripeProcessor opens and reads Stripe hosted checkout sessions
type StripeProcessor struct {
	api    *client.API
	logger logrus.FieldLogger
}

// NewProcessor returns a Stripe processor, or a processor that always fails
// with checkout.ErrProcessorUnavailable when no secret key is configured
func NewProcessor(cfg config.StripeConfig, logger logrus.FieldLogger) checkout.Processor {
	if cfg.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout is disabled")
		return checkout.UnavailableProcessor{Reason: "STRIPE_SECRET_KEY not set"}
	}
	return NewStripeProcessor(cfg.SecretKey, nil, logger)
}

// NewStripeProcessor creates a processor for secretKey. backends may be nil
// to use the public Stripe API.
func NewStripeProcessor(secretKey string, backends *stripe.Backends, logger logrus.FieldLogger) *StripeProcessor {
	if backends == nil {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				LeveledLogger: logger,
			}),
			Connect: stripe.GetBackend(stripe.ConnectBackend),
			Uploads: stripe.GetBackend(stripe.UploadsBackend),
		}
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProcessor{api: api, logger: logger}
}

// CreateSession opens a payment-mode checkout session
func (p *StripeProcessor) CreateSession(ctx context.Context, req *checkout.SessionRequest) (*checkout.ProcessorSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(line.PriceID),
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	for _, line := range req.AdHoc {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(line.Currency),
				UnitAmount: stripe.Int64(line.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	if len(params.LineItems) == 0 {
		return nil, fmt.Errorf("checkout session needs at least one line item")
	}

	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"stripe_session_id": s.ID,
		"line_items":        len(params.LineItems),
	}).Debug("stripe checkout session created")

	return toProcessorSession(s), nil
}

// GetSession retrieves a checkout session by id
func (p *StripeProcessor) GetSession(ctx context.Context, id string) (*checkout.ProcessorSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, fmt.Errorf("%w: %s", checkout.ErrUnknownSession, id)
		}
		return nil, fmt.Errorf("failed to retrieve stripe checkout session: %w", err)
	}
	return toProcessorSession(s), nil
}

func toProcessorSession(s *stripe.CheckoutSession) *checkout.ProcessorSession {
	return &checkout.ProcessorSession{
		ID:                s.ID,
		URL:               s.URL,
		Paid:              s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		ClientReferenceID: s.ClientReferenceID,
		AmountTotal:       s.AmountTotal,
		Metadata:          s.Metadata,
	}
}
