// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/domain/cart"
	"github.com/your-org/studio-storefront/internal/domain/pricing"
	"github.com/your-org/studio-storefront/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	logger      logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, logger logrus.FieldLogger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// CartResponse is a cart snapshot with display strings for the totals
type CartResponse struct {
	*cart.Snapshot
	Formatted FormattedTotals `json:"formatted"`
}

// FormattedTotals are the cart totals as currency strings
type FormattedTotals struct {
	CartTotal  string `json:"cart_total"`
	PlanTotal  string `json:"plan_total"`
	GrandTotal string `json:"grand_total"`
}

func newCartResponse(snap *cart.Snapshot) CartResponse {
	return CartResponse{
		Snapshot: snap,
		Formatted: FormattedTotals{
			CartTotal:  pricing.FormatCurrency(snap.Totals.CartTotal),
			PlanTotal:  pricing.FormatCurrency(snap.Totals.PlanTotal),
			GrandTotal: pricing.FormatCurrency(snap.Totals.GrandTotal),
		},
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	snap, err := h.cartService.GetCart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    newCartResponse(snap),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	count, err := h.cartService.GetCartItemCount(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": count,
		},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Item id is required",
		})
		return
	}

	snap, err := h.cartService.AddToCart(c.Request.Context(), middleware.GetSessionID(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    newCartResponse(snap),
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	snap, err := h.cartService.UpdateCartItem(c.Request.Context(), middleware.GetSessionID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    newCartResponse(snap),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	snap, err := h.cartService.RemoveFromCart(c.Request.Context(), middleware.GetSessionID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    newCartResponse(snap),
	})
}

// SelectPlan handles PUT /cart/plan. A JSON null clears the plan.
func (h *CartHandler) SelectPlan(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	var plan *cart.Plan
	if err := json.Unmarshal(body, &plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if plan != nil {
		plan.Name = strings.TrimSpace(plan.Name)
		if plan.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Plan name is required",
			})
			return
		}
	}

	snap, err := h.cartService.SelectPlan(c.Request.Context(), middleware.GetSessionID(c), plan)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Plan updated successfully",
		"data":    newCartResponse(snap),
	})
}

// RemovePlan handles DELETE /cart/plan
func (h *CartHandler) RemovePlan(c *gin.Context) {
	snap, err := h.cartService.SelectPlan(c.Request.Context(), middleware.GetSessionID(c), nil)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Plan removed successfully",
		"data":    newCartResponse(snap),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	snap, err := h.cartService.ClearCart(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    newCartResponse(snap),
	})
}
