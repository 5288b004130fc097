// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/studio-storefront/internal/config"
	"github.com/your-org/studio-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/studio-storefront/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Catalog  *handlers.CatalogHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Project  *handlers.ProjectHandler
	Intake   *handlers.IntakeHandler
	Lead     *handlers.LeadHandler
}

// SetupCatalogRoutes sets up the public catalog
func SetupCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/catalog", h.Catalog.GetCatalog)
}

// SetupCartRoutes sets up cart related routes
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	cart := rg.Group("/cart")
	cart.Use(middleware.Session(cfg))
	{
		cart.GET("", h.Cart.GetCart)
		cart.GET("/count", h.Cart.GetCartCount)
		cart.DELETE("", h.Cart.ClearCart)

		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:id", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:id", h.Cart.RemoveFromCart)

		cart.PUT("/plan", h.Cart.SelectPlan)
		cart.DELETE("/plan", h.Cart.RemovePlan)
	}
}

// SetupCheckoutRoutes sets up deposit and final payment checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.Session(cfg))
	{
		checkout.GET("/quote", h.Checkout.GetQuote)
		checkout.POST("", h.Checkout.BeginCheckout)
		checkout.GET("/success", h.Checkout.CheckoutSuccess)
		checkout.GET("/order", h.Checkout.GetCompletedOrder)
		checkout.GET("/order/receipt.pdf", h.Checkout.DownloadReceipt)
		checkout.POST("/final", h.Checkout.BeginFinalPayment)
	}
}

// SetupIntakeRoutes sets up the project intake questionnaire
func SetupIntakeRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	intake := rg.Group("/intake")
	intake.Use(middleware.Session(cfg))
	{
		intake.GET("", h.Intake.GetIntake)
		intake.PUT("", h.Intake.SaveIntake)
	}
}

// SetupRelayRoutes sets up routes called by the site's server side and the
// agency's back office. All of them require the relay secret.
func SetupRelayRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	protected := rg.Group("")
	protected.Use(middleware.RelaySecret(cfg.Relay.SecretHash))
	{
		protected.POST("/forms/submit", h.Lead.SubmitForm)
		protected.POST("/projects/:id/final-payment-link", h.Project.CreateFinalPaymentLink)
	}
}

// SetupRoutes sets up all API routes
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, cfg *config.Config) {
	SetupCatalogRoutes(rg, h)
	SetupCartRoutes(rg, h, cfg)
	SetupCheckoutRoutes(rg, h, cfg)
	SetupIntakeRoutes(rg, h, cfg)
	SetupRelayRoutes(rg, h, cfg)
}
