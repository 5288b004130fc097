package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a plan price as the site sends it: either a JSON number or a
// display string such as "$500". The original form is kept for display.
type Price struct {
	number *decimal.Decimal
	text   string
}

// NewPrice returns a numeric price
func NewPrice(amount decimal.Decimal) Price {
	return Price{number: &amount}
}

// NewTextPrice returns a price given as display text
func NewTextPrice(text string) Price {
	return Price{text: text}
}

// Amount is the normalized numeric value
func (p Price) Amount() decimal.Decimal {
	if p.number != nil {
		return *p.number
	}
	return NormalizePriceText(p.text)
}

// IsText reports whether the price was given as a string
func (p Price) IsText() bool {
	return p.number == nil
}

func (p Price) String() string {
	if p.number != nil {
		return FormatCurrency(*p.number)
	}
	return p.text
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.number != nil {
		return []byte(p.number.String()), nil
	}
	return json.Marshal(p.text)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = NewTextPrice(s)
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", data, err)
	}
	*p = NewPrice(d)
	return nil
}
