// internal/domain/catalog/catalog.go
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is returned when the catalog file fails validation
var ErrInvalidCatalog = errors.New("invalid catalog")

// Plan is a package offered on the pricing page
type Plan struct {
	Name         string   `yaml:"name" json:"name"`
	Price        float64  `yaml:"price" json:"price"`
	PriceID      string   `yaml:"price_id" json:"-"`
	Features     []string `yaml:"features" json:"features"`
	DeliveryTime string   `yaml:"delivery_time" json:"delivery_time"`
	Revisions    string   `yaml:"revisions" json:"revisions"`
}

// AddOn is an extra service that can be added to the cart
type AddOn struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Price       float64 `yaml:"price" json:"price"`
	PriceID     string  `yaml:"price_id" json:"-"`
	Description string  `yaml:"description" json:"description"`
}

// Amount returns the add-on price as a decimal
func (a AddOn) Amount() decimal.Decimal {
	return decimal.NewFromFloat(a.Price)
}

// Catalog maps plans and add-ons to payment processor price ids
type Catalog struct {
	Currency        string  `yaml:"currency" json:"currency"`
	FallbackPriceID string  `yaml:"fallback_price_id" json:"-"`
	Plans           []Plan  `yaml:"plans" json:"plans"`
	AddOns          []AddOn `yaml:"add_ons" json:"add_ons"`

	plansByName map[string]Plan
	addOnsByID  map[string]AddOn
}

// Load reads and validates a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if c.FallbackPriceID == "" {
		return fmt.Errorf("%w: fallback_price_id is required", ErrInvalidCatalog)
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}

	c.plansByName = make(map[string]Plan, len(c.Plans))
	for _, p := range c.Plans {
		key := planKey(p.Name)
		if key == "" {
			return fmt.Errorf("%w: plan without a name", ErrInvalidCatalog)
		}
		if _, dup := c.plansByName[key]; dup {
			return fmt.Errorf("%w: duplicate plan %q", ErrInvalidCatalog, p.Name)
		}
		c.plansByName[key] = p
	}

	c.addOnsByID = make(map[string]AddOn, len(c.AddOns))
	for _, a := range c.AddOns {
		if a.ID == "" {
			return fmt.Errorf("%w: add-on without an id", ErrInvalidCatalog)
		}
		if _, dup := c.addOnsByID[a.ID]; dup {
			return fmt.Errorf("%w: duplicate add-on %q", ErrInvalidCatalog, a.ID)
		}
		c.addOnsByID[a.ID] = a
	}
	return nil
}

// Plan looks a plan up by display name, ignoring case and surrounding space
func (c *Catalog) Plan(name string) (Plan, bool) {
	p, ok := c.plansByName[planKey(name)]
	return p, ok
}

// AddOn looks an add-on up by id
func (c *Catalog) AddOn(id string) (AddOn, bool) {
	a, ok := c.addOnsByID[id]
	return a, ok
}

// PlanPriceID returns the processor price id for a plan name
func (c *Catalog) PlanPriceID(name string) (string, bool) {
	p, ok := c.Plan(name)
	if !ok || p.PriceID == "" {
		return "", false
	}
	return p.PriceID, true
}

// AddOnPriceID returns the processor price id for an add-on id
func (c *Catalog) AddOnPriceID(id string) (string, bool) {
	a, ok := c.AddOn(id)
	if !ok || a.PriceID == "" {
		return "", false
	}
	return a.PriceID, true
}

// FallbackID is substituted for unmapped plans and empty checkouts
func (c *Catalog) FallbackID() string {
	return c.FallbackPriceID
}

func planKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
