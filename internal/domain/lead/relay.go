// Package lead forwards lead-capture submissions to the external webhook
// that feeds the agency's CRM.
package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxResponseBytes caps how much of the upstream reply is relayed back
const maxResponseBytes = 1 << 20

var (
	// ErrNotConfigured is returned when no webhook URL is set
	ErrNotConfigured = errors.New("lead webhook not configured")
	// ErrInvalidPayload is returned when the body is not JSON
	ErrInvalidPayload = errors.New("payload must be valid JSON")
)

// Relay posts JSON documents to the lead webhook
type Relay struct {
	webhookURL string
	client     *http.Client
	logger     logrus.FieldLogger
}

// NewRelay creates a new relay. An empty webhookURL disables forwarding.
func NewRelay(webhookURL string, timeout time.Duration, logger logrus.FieldLogger) *Relay {
	return &Relay{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithField("component", "lead_relay"),
	}
}

// Forward posts body unchanged and returns the upstream status and body
func (r *Relay) Forward(ctx context.Context, body []byte) (int, []byte, error) {
	if r.webhookURL == "" {
		return 0, nil, ErrNotConfigured
	}
	if !json.Valid(body) {
		return 0, nil, ErrInvalidPayload
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to call lead webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"bytes":  len(body),
	}).Debug("lead forwarded")

	return resp.StatusCode, respBody, nil
}

// Notify sends an event to the webhook. Failures are logged and dropped so
// the caller's flow is never interrupted.
func (r *Relay) Notify(ctx context.Context, event string, payload interface{}) {
	if r.webhookURL == "" {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":        event,
		"submitted_at": time.Now().UTC().Format(time.RFC3339),
		"data":         payload,
	})
	if err != nil {
		r.logger.WithError(err).WithField("event", event).Warn("failed to encode lead notification")
		return
	}

	status, _, err := r.Forward(ctx, body)
	switch {
	case err != nil:
		r.logger.WithError(err).WithField("event", event).Warn("lead notification failed")
	case status >= 300:
		r.logger.WithFields(logrus.Fields{
			"event":  event,
			"status": status,
		}).Warn("lead webhook rejected notification")
	}
}
