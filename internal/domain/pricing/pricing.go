// Package pricing holds the pure money helpers shared by the cart and the
// checkout: line and cart totals, plan price normalization and USD
// formatting.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// LineItem is one add-on or service in the cart
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

var usd = message.NewPrinter(language.AmericanEnglish)

// LineItemTotal returns unit price times quantity
func LineItemTotal(item LineItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// CartTotal sums the line totals
func CartTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineItemTotal(item))
	}
	return total
}

// TotalItemCount sums the quantities
func TotalItemCount(items []LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// NormalizePlanPrice returns the numeric value of a plan price. Absent or
// unparsable prices are 0.
func NormalizePlanPrice(p *Price) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return p.Amount()
}

// NormalizePriceText keeps only digits and dots and parses the longest
// numeric prefix of the result, so "1.2.3" reads as 1.2
func NormalizePriceText(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if first := strings.IndexByte(cleaned, '.'); first >= 0 {
		if second := strings.IndexByte(cleaned[first+1:], '.'); second >= 0 {
			cleaned = cleaned[:first+1+second]
		}
	}
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.Zero
	}
	if cleaned[0] == '.' {
		cleaned = "0" + cleaned
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatCurrency renders amount as US dollars, e.g. $1,234.50
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	f, _ := rounded.Float64()
	return sign + "$" + usd.Sprint(number.Decimal(f, number.Scale(2)))
}

// ToCents converts a dollar amount to whole cents, rounding half away from zero
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Ceil rounds amount up to the next whole currency unit
func Ceil(amount decimal.Decimal) decimal.Decimal {
	return amount.Ceil()
}
