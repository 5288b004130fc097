// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/checkout"
	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
	"github.com/your-org/studio-storefront/internal/interfaces/http/middleware"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	logger          logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, logger logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// BeginCheckoutRequest carries optional customer details
type BeginCheckoutRequest struct {
	Customer order.CustomerInfo `json:"customer"`
}

// FinalPaymentCheckoutRequest carries the token of a final payment link
type FinalPaymentCheckoutRequest struct {
	Token string `json:"token" form:"token" binding:"required"`
}

// QuoteResponse is a deposit quote with display strings
type QuoteResponse struct {
	checkout.Quote
	Formatted FormattedQuote `json:"formatted"`
}

// FormattedQuote are the quote amounts as currency strings
type FormattedQuote struct {
	BasePrice   string `json:"base_price"`
	AddOnsTotal string `json:"add_ons_total"`
	Subtotal    string `json:"subtotal"`
	Deposit     string `json:"deposit"`
	Remaining   string `json:"remaining"`
}

func newQuoteResponse(q checkout.Quote) QuoteResponse {
	return QuoteResponse{
		Quote: q,
		Formatted: FormattedQuote{
			BasePrice:   pricing.FormatCurrency(q.BasePrice),
			AddOnsTotal: pricing.FormatCurrency(q.AddOnsTotal),
			Subtotal:    pricing.FormatCurrency(q.Subtotal),
			Deposit:     pricing.FormatCurrency(q.Deposit),
			Remaining:   pricing.FormatCurrency(q.Remaining),
		},
	}
}

// GetQuote handles GET /checkout/quote
func (h *CheckoutHandler) GetQuote(c *gin.Context) {
	q, err := h.checkoutService.Quote(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quote calculated successfully",
		"data":    newQuoteResponse(*q),
	})
}

// BeginCheckout handles POST /checkout. JSON callers receive the hosted
// checkout URL; plain form posts are redirected to it.
func (h *CheckoutHandler) BeginCheckout(c *gin.Context) {
	var req BeginCheckoutRequest
	if c.ContentType() == gin.MIMEJSON && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}

	session, err := h.checkoutService.BeginCheckout(c.Request.Context(), middleware.GetSessionID(c), req.Customer)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.redirectOrRespond(c, session, "Checkout session created successfully")
}

// BeginFinalPayment handles POST /checkout/final
func (h *CheckoutHandler) BeginFinalPayment(c *gin.Context) {
	var req FinalPaymentCheckoutRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	session, err := h.checkoutService.BeginFinalPayment(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.redirectOrRespond(c, session, "Final payment session created successfully")
}

func (h *CheckoutHandler) redirectOrRespond(c *gin.Context, session *checkout.Session, message string) {
	if c.ContentType() == gin.MIMEPOSTForm {
		c.Redirect(http.StatusSeeOther, session.CheckoutURL)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    session,
	})
}

// CheckoutSuccess handles GET /checkout/success?session_id=...[&project=...]
func (h *CheckoutHandler) CheckoutSuccess(c *gin.Context) {
	processorSessionID := c.Query("session_id")

	if projectID := c.Query("project"); projectID != "" {
		project, err := h.checkoutService.CompleteFinalPayment(c.Request.Context(), projectID, processorSessionID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Final payment received",
			"data": gin.H{
				"project": project,
				"formatted": gin.H{
					"amount_paid": pricing.FormatCurrency(project.RemainingBalance),
				},
			},
		})
		return
	}

	o, err := h.checkoutService.CompleteCheckout(c.Request.Context(), middleware.GetSessionID(c), processorSessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deposit received",
		"data":    newOrderResponse(o),
	})
}

// GetCompletedOrder handles GET /checkout/order
func (h *CheckoutHandler) GetCompletedOrder(c *gin.Context) {
	o, err := h.checkoutService.CompletedOrder(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    newOrderResponse(o),
	})
}

// DownloadReceipt handles GET /checkout/order/receipt.pdf
func (h *CheckoutHandler) DownloadReceipt(c *gin.Context) {
	pdfBuffer, o, err := h.checkoutService.ReceiptPDF(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.OrderNumber))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

// OrderResponse is an order with display strings for its amounts
type OrderResponse struct {
	*order.Order
	Formatted gin.H `json:"formatted"`
}

func newOrderResponse(o *order.Order) OrderResponse {
	return OrderResponse{
		Order: o,
		Formatted: gin.H{
			"subtotal":  pricing.FormatCurrency(o.Subtotal),
			"deposit":   pricing.FormatCurrency(o.Deposit),
			"remaining": pricing.FormatCurrency(o.Remaining),
		},
	}
}
