// internal/pkg/email/api_providers.go
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Resend API structures
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// SendGrid API structures
type SendGridEmailRequest struct {
	Personalizations []SendGridPersonalization `json:"personalizations"`
	From             SendGridEmail             `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []SendGridContent         `json:"content"`
	ReplyTo          *SendGridEmail            `json:"reply_to,omitempty"`
}

type SendGridPersonalization struct {
	To []SendGridEmail `json:"to"`
}

type SendGridEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// MailerSend API structures
type MailerSendRequest struct {
	From    MailerSendEmail   `json:"from"`
	To      []MailerSendEmail `json:"to"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	ReplyTo *MailerSendEmail  `json:"reply_to,omitempty"`
	Tags    []string          `json:"tags,omitempty"`
}

type MailerSendEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// sendResendEmail sends email using Resend API
func (s *EmailService) sendResendEmail(ctx context.Context, email *Email) error {
	reqData := ResendEmailRequest{
		From:    s.fromAddress(),
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTMLContent,
		ReplyTo: s.config.ReplyTo,
	}

	return s.postJSON(ctx, "Resend", s.endpoints["resend"], reqData, http.StatusOK)
}

// sendSendGridEmail sends email using SendGrid API
func (s *EmailService) sendSendGridEmail(ctx context.Context, email *Email) error {
	var to []SendGridEmail
	for _, recipient := range email.To {
		to = append(to, SendGridEmail{Email: recipient})
	}

	var replyTo *SendGridEmail
	if s.config.ReplyTo != "" {
		replyTo = &SendGridEmail{Email: s.config.ReplyTo}
	}

	reqData := SendGridEmailRequest{
		Personalizations: []SendGridPersonalization{
			{To: to},
		},
		From: SendGridEmail{
			Email: s.config.FromEmail,
			Name:  s.config.FromName,
		},
		Subject: email.Subject,
		Content: []SendGridContent{
			{
				Type:  "text/html",
				Value: email.HTMLContent,
			},
		},
		ReplyTo: replyTo,
	}

	return s.postJSON(ctx, "SendGrid", s.endpoints["sendgrid"], reqData, http.StatusAccepted)
}

// sendMailerSendEmail sends email using MailerSend API
func (s *EmailService) sendMailerSendEmail(ctx context.Context, email *Email) error {
	var to []MailerSendEmail
	for _, recipient := range email.To {
		to = append(to, MailerSendEmail{Email: recipient})
	}

	var replyTo *MailerSendEmail
	if s.config.ReplyTo != "" {
		replyTo = &MailerSendEmail{Email: s.config.ReplyTo}
	}

	reqData := MailerSendRequest{
		From: MailerSendEmail{
			Email: s.config.FromEmail,
			Name:  s.config.FromName,
		},
		To:      to,
		Subject: email.Subject,
		HTML:    email.HTMLContent,
		ReplyTo: replyTo,
		Tags:    []string{string(email.Type)},
	}

	return s.postJSON(ctx, "MailerSend", s.endpoints["mailersend"], reqData, http.StatusAccepted)
}

// postJSON sends an authenticated JSON request to a provider API
func (s *EmailService) postJSON(ctx context.Context, provider, endpoint string, body interface{}, wantStatus int) error {
	if s.config.APIKey == "" {
		return fmt.Errorf("%s API key not configured", provider)
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", provider, err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s API returned status %d", provider, resp.StatusCode)
	}

	return nil
}
