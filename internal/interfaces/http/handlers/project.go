package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/checkout"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
)

// ProjectHandler serves the agency's back office calls for projects
type ProjectHandler struct {
	checkoutService *checkout.Service
	logger          logrus.FieldLogger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(checkoutService *checkout.Service, logger logrus.FieldLogger) *ProjectHandler {
	return &ProjectHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// CreateFinalPaymentLink handles POST /projects/:id/final-payment-link
func (h *ProjectHandler) CreateFinalPaymentLink(c *gin.Context) {
	var req checkout.FinalPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}
	req.ProjectID = c.Param("id")

	if req.Balance != nil && req.Balance.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Remaining balance cannot be negative",
		})
		return
	}

	link, err := h.checkoutService.GenerateFinalPaymentLink(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Final payment link generated successfully",
		"data": gin.H{
			"link": link,
			"formatted": gin.H{
				"remaining_balance": pricing.FormatCurrency(link.Balance),
			},
		},
	})
}
