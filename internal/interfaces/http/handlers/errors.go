// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/checkout"
	"github.com/your-org/studio-storefront/internal/domain/lead"
)

// statusFor maps domain errors to an HTTP status and a message the visitor
// may see. Unknown errors are 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrProcessorUnavailable):
		return http.StatusServiceUnavailable, "Payment processing is temporarily unavailable. Please try again later."
	case errors.Is(err, checkout.ErrMissingSession):
		return http.StatusBadRequest, "Missing checkout session id"
	case errors.Is(err, checkout.ErrNoPendingOrder):
		return http.StatusNotFound, "No pending order found for this session"
	case errors.Is(err, checkout.ErrSessionNotPaid):
		return http.StatusPaymentRequired, "Payment has not been completed"
	case errors.Is(err, checkout.ErrInvalidPaymentLink):
		return http.StatusUnauthorized, "This payment link is invalid or has expired"
	case errors.Is(err, checkout.ErrProjectNotFound):
		return http.StatusNotFound, "Project not found"
	case errors.Is(err, checkout.ErrNothingDue):
		return http.StatusConflict, "This project has no balance due"
	case errors.Is(err, checkout.ErrNoCompletedOrder):
		return http.StatusNotFound, "No completed order found for this session"
	case errors.Is(err, lead.ErrNotConfigured):
		return http.StatusServiceUnavailable, "Form submissions are not configured"
	case errors.Is(err, lead.ErrInvalidPayload):
		return http.StatusBadRequest, "Request body must be valid JSON"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondError writes the JSON error body for err
func respondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, message := statusFor(err)

	entry := logger.WithError(err).WithField("path", c.FullPath())
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"error": message,
	})
}
