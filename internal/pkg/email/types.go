// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeDepositReceipt   EmailType = "deposit_receipt"
	EmailTypeFinalPaymentLink EmailType = "final_payment_link"
	EmailTypeFinalPaymentPaid EmailType = "final_payment_paid"
)

// Email represents an email message
type Email struct {
	To          []string               `json:"to"`
	Subject     string                 `json:"subject"`
	HTMLContent string                 `json:"html_content"`
	Type        EmailType              `json:"type"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName   string `json:"site_name"`
	SiteURL    string `json:"site_url"`
	SupportURL string `json:"support_url"`
	UserName   string `json:"user_name"`
	UserEmail  string `json:"user_email"`
	Year       int    `json:"year"`
}

// ReceiptLine is one row of a receipt
type ReceiptLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Total    string `json:"total"`
}

// DepositReceiptData contains data for the deposit receipt email
type DepositReceiptData struct {
	EmailTemplateData
	OrderNumber string        `json:"order_number"`
	OrderDate   string        `json:"order_date"`
	PlanName    string        `json:"plan_name"`
	PlanPrice   string        `json:"plan_price"`
	Lines       []ReceiptLine `json:"lines"`
	Subtotal    string        `json:"subtotal"`
	Deposit     string        `json:"deposit"`
	Remaining   string        `json:"remaining"`
	OrderURL    string        `json:"order_url"`
}

// FinalPaymentLinkData contains data for the final payment email
type FinalPaymentLinkData struct {
	EmailTemplateData
	ProjectID string `json:"project_id"`
	Balance   string `json:"balance"`
	PayURL    string `json:"pay_url"`
	ExpiresOn string `json:"expires_on"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, siteURL, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:   siteName,
		SiteURL:    siteURL,
		SupportURL: siteURL + "/contact",
		UserName:   userName,
		UserEmail:  userEmail,
		Year:       time.Now().Year(),
	}
}
