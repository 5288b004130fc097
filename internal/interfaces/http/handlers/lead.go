package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/lead"
)

// LeadHandler relays lead-capture forms to the CRM webhook
type LeadHandler struct {
	relay  *lead.Relay
	logger logrus.FieldLogger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(relay *lead.Relay, logger logrus.FieldLogger) *LeadHandler {
	return &LeadHandler{
		relay:  relay,
		logger: logger,
	}
}

// SubmitForm handles POST /forms/submit. The upstream status and body are
// passed back unchanged.
func (h *LeadHandler) SubmitForm(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	status, respBody, err := h.relay.Forward(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, lead.ErrNotConfigured) || errors.Is(err, lead.ErrInvalidPayload) {
			respondError(c, h.logger, err)
			return
		}
		h.logger.WithError(err).Error("lead webhook unreachable")
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to submit form",
		})
		return
	}

	c.Data(status, gin.MIMEJSON, respBody)
}
