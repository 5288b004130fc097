// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/studio-storefront/internal/config"
	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

// Service handles PDF generation
type Service struct {
	company CompanyInfo
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	if cfg.PDF.WkhtmltopdfPath != "" {
		wkhtmltopdf.SetPath(cfg.PDF.WkhtmltopdfPath)
	}
	return &Service{
		company: CompanyInfo{
			Name:    cfg.App.CompanyName,
			Email:   cfg.App.CompanyEmail,
			Website: cfg.App.CompanyWebsite,
		},
	}
}

// GenerateReceipt renders the deposit receipt of a paid order as PDF
func (s *Service) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.ReceiptHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Title.Set("Receipt " + o.OrderNumber)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// ReceiptHTML renders the receipt page that is converted to PDF
func (s *Service) ReceiptHTML(o *order.Order) (string, error) {
	data := ReceiptData{
		ReceiptNumber: "RCPT-" + o.OrderNumber,
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt.Format("January 2, 2006"),
		Status:        string(o.Status),
		Company:       s.company,
		Customer:      o.Customer.Name(),
		CustomerEmail: o.Customer.Email(),
		Subtotal:      pricing.FormatCurrency(o.Subtotal),
		Deposit:       pricing.FormatCurrency(o.Deposit),
		Remaining:     pricing.FormatCurrency(o.Remaining),
		Paid:          o.IsPaid(),
	}
	if o.PaidAt != nil {
		data.PaidDate = o.PaidAt.Format("January 2, 2006")
	}
	if o.Plan != nil {
		data.Lines = append(data.Lines, ReceiptLine{
			Name:      o.Plan.Name + " (plan)",
			Quantity:  1,
			UnitPrice: pricing.FormatCurrency(o.BasePrice),
			Total:     pricing.FormatCurrency(o.BasePrice),
		})
	}
	for _, item := range o.Items {
		name := item.Name
		if name == "" {
			name = item.ID
		}
		data.Lines = append(data.Lines, ReceiptLine{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: pricing.FormatCurrency(item.UnitPrice),
			Total:     pricing.FormatCurrency(pricing.LineItemTotal(item)),
		})
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	OrderNumber   string
	OrderDate     string
	PaidDate      string
	Status        string
	Paid          bool
	Company       CompanyInfo
	Customer      string
	CustomerEmail string
	Lines         []ReceiptLine
	Subtotal      string
	Deposit       string
	Remaining     string
}

// ReceiptLine is one row of the receipt table
type ReceiptLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	Total     string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Email   string
	Website string
}

const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .receipt-info { text-align: right; }
        .receipt-title { font-size: 28px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .items-table .num { text-align: right; width: 90px; }
        .totals { float: right; width: 320px; }
        .totals table { width: 100%; border-collapse: collapse; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; }
        .status-badge { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; text-transform: uppercase; }
        .status-paid { background-color: #dcfce7; color: #166534; }
        .status-pending { background-color: #fef3c7; color: #92400e; }
        .footer { clear: both; margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Company.Name}}</h1>
            <p>{{.Company.Email}}</p>
            <p>{{.Company.Website}}</p>
        </div>
        <div class="receipt-info">
            <div class="receipt-title">RECEIPT</div>
            <p><strong>Receipt #:</strong> {{.ReceiptNumber}}</p>
            <p><strong>Order #:</strong> {{.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.OrderDate}}</p>
            {{if .PaidDate}}<p><strong>Paid:</strong> {{.PaidDate}}</p>{{end}}
            <span class="status-badge {{if .Paid}}status-paid{{else}}status-pending{{end}}">{{.Status}}</span>
        </div>
    </div>

    {{if or .Customer .CustomerEmail}}
    <p><strong>Billed to:</strong> {{.Customer}} {{.CustomerEmail}}</p>
    {{end}}

    <table class="items-table">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Total}}</td></tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal</td><td>{{.Subtotal}}</td></tr>
            <tr class="total-row"><td>Deposit paid</td><td>{{.Deposit}}</td></tr>
            <tr><td>Balance due on completion</td><td>{{.Remaining}}</td></tr>
        </table>
    </div>

    <div class="footer">
        <p>Thank you for your business.</p>
    </div>
</body>
</html>
`
