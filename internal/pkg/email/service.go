// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/config"
)

// Provider endpoints
const (
	resendEndpoint     = "https://api.resend.com/emails"
	sendGridEndpoint   = "https://api.sendgrid.com/v3/mail/send"
	mailerSendEndpoint = "https://api.mailersend.com/v1/email"
)

// EmailService handles all email operations
type EmailService struct {
	config    config.EmailConfig
	app       config.AppConfig
	templates map[string]*template.Template
	client    *http.Client
	logger    logrus.FieldLogger
	endpoints map[string]string
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, logger logrus.FieldLogger) *EmailService {
	return &EmailService{
		config:    cfg.Email,
		app:       cfg.App,
		templates: mustParseTemplates(),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.WithField("component", "email"),
		endpoints: map[string]string{
			"resend":     resendEndpoint,
			"sendgrid":   sendGridEndpoint,
			"mailersend": mailerSendEndpoint,
		},
	}
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	switch s.config.Provider {
	case "", "none":
		s.logger.WithFields(logrus.Fields{
			"type":    email.Type,
			"to":      email.To,
			"subject": email.Subject,
		}).Info("email provider disabled, not sending")
		return nil
	case "smtp":
		return s.sendSMTPEmail(email)
	case "resend":
		return s.sendResendEmail(ctx, email)
	case "sendgrid":
		return s.sendSendGridEmail(ctx, email)
	case "mailersend":
		return s.sendMailerSendEmail(ctx, email)
	default:
		return fmt.Errorf("unsupported email provider: %s", s.config.Provider)
	}
}

// SendDepositReceipt confirms a paid deposit
func (s *EmailService) SendDepositReceipt(ctx context.Context, to, name string, data DepositReceiptData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.siteName(), s.app.SiteURL, name, to)

	htmlContent, err := s.renderTemplate("deposit_receipt", data)
	if err != nil {
		return fmt.Errorf("failed to render deposit receipt template: %w", err)
	}

	email := &Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Deposit received - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeDepositReceipt,
		Data: map[string]interface{}{
			"order_number": data.OrderNumber,
			"deposit":      data.Deposit,
		},
	}

	return s.SendEmail(ctx, email)
}

// SendFinalPaymentLink sends the link for the remaining balance
func (s *EmailService) SendFinalPaymentLink(ctx context.Context, to, name string, data FinalPaymentLinkData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.siteName(), s.app.SiteURL, name, to)

	htmlContent, err := s.renderTemplate("final_payment_link", data)
	if err != nil {
		return fmt.Errorf("failed to render final payment template: %w", err)
	}

	email := &Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Your project is ready - balance due %s", data.Balance),
		HTMLContent: htmlContent,
		Type:        EmailTypeFinalPaymentLink,
		Data: map[string]interface{}{
			"project_id": data.ProjectID,
			"balance":    data.Balance,
		},
	}

	return s.SendEmail(ctx, email)
}

// SendFinalPaymentPaid thanks the customer for settling the balance
func (s *EmailService) SendFinalPaymentPaid(ctx context.Context, to, name string, data FinalPaymentLinkData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.siteName(), s.app.SiteURL, name, to)

	htmlContent, err := s.renderTemplate("final_payment_paid", data)
	if err != nil {
		return fmt.Errorf("failed to render final payment paid template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{to},
		Subject:     "Payment received - thank you",
		HTMLContent: htmlContent,
		Type:        EmailTypeFinalPaymentPaid,
		Data:        map[string]interface{}{"project_id": data.ProjectID},
	})
}

func (s *EmailService) siteName() string {
	if s.app.CompanyName != "" {
		return s.app.CompanyName
	}
	return s.config.FromName
}

func (s *EmailService) fromAddress() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	return s.config.FromEmail
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{if .UserName}}{{.UserName}}{{else}}there{{end}},</p>
        {{template "content" .}}
        <p>Questions? <a href="{{.SupportURL}}">Get in touch</a>.</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>{{end}}`

var contentTemplates = map[string]string{
	"deposit_receipt": `{{define "content"}}
        <p>We received your deposit for order <strong>{{.OrderNumber}}</strong> on {{.OrderDate}}.</p>
        <table style="width: 100%; border-collapse: collapse;">
            {{if .PlanName}}<tr><td>{{.PlanName}}</td><td style="text-align: right;">{{.PlanPrice}}</td></tr>{{end}}
            {{range .Lines}}<tr><td>{{.Name}} &times; {{.Quantity}}</td><td style="text-align: right;">{{.Total}}</td></tr>{{end}}
            <tr><td><strong>Subtotal</strong></td><td style="text-align: right;">{{.Subtotal}}</td></tr>
            <tr><td><strong>Paid today</strong></td><td style="text-align: right;">{{.Deposit}}</td></tr>
            <tr><td>Due on completion</td><td style="text-align: right;">{{.Remaining}}</td></tr>
        </table>
        <p><a href="{{.OrderURL}}">View your order</a></p>
{{end}}`,
	"final_payment_link": `{{define "content"}}
        <p>Your project <strong>{{.ProjectID}}</strong> is complete. The remaining balance is <strong>{{.Balance}}</strong>.</p>
        <p><a href="{{.PayURL}}" style="background: #111; color: #fff; padding: 10px 16px; text-decoration: none; border-radius: 4px;">Pay the balance</a></p>
        <p style="font-size: 12px; color: #666;">This link is valid until {{.ExpiresOn}}.</p>
{{end}}`,
	"final_payment_paid": `{{define "content"}}
        <p>We received the final payment for project <strong>{{.ProjectID}}</strong>. Thank you for working with us.</p>
{{end}}`,
}

func mustParseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(contentTemplates))
	for name, content := range contentTemplates {
		tmpl := template.Must(template.New(name).Parse(layoutTemplate))
		template.Must(tmpl.Parse(content))
		out[name] = tmpl.Lookup("layout")
	}
	return out
}
