package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/studio-storefront/internal/domain/catalog"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
)

// CatalogHandler serves the plans and add-ons offered on the site
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

type planView struct {
	catalog.Plan
	FormattedPrice string `json:"formatted_price"`
}

type addOnView struct {
	catalog.AddOn
	FormattedPrice string `json:"formatted_price"`
}

// GetCatalog handles GET /catalog
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	plans := make([]planView, 0, len(h.catalog.Plans))
	for _, p := range h.catalog.Plans {
		plans = append(plans, planView{
			Plan:           p,
			FormattedPrice: pricing.FormatCurrency(decimal.NewFromFloat(p.Price)),
		})
	}

	addOns := make([]addOnView, 0, len(h.catalog.AddOns))
	for _, a := range h.catalog.AddOns {
		addOns = append(addOns, addOnView{
			AddOn:          a,
			FormattedPrice: pricing.FormatCurrency(a.Amount()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Catalog retrieved successfully",
		"data": gin.H{
			"currency": h.catalog.Currency,
			"plans":    plans,
			"add_ons":  addOns,
		},
	})
}
