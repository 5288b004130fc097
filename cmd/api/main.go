// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/studio-storefront/internal/config"
	"github.com/your-org/studio-storefront/internal/domain/cart"
	"github.com/your-org/studio-storefront/internal/domain/catalog"
	"github.com/your-org/studio-storefront/internal/domain/checkout"
	"github.com/your-org/studio-storefront/internal/domain/intake"
	"github.com/your-org/studio-storefront/internal/domain/lead"
	"github.com/your-org/studio-storefront/internal/domain/order"
	"github.com/your-org/studio-storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/studio-storefront/internal/infrastructure/database/redis"
	"github.com/your-org/studio-storefront/internal/infrastructure/payment"
	"github.com/your-org/studio-storefront/internal/interfaces/http"
	"github.com/your-org/studio-storefront/internal/interfaces/http/handlers"
	"github.com/your-org/studio-storefront/internal/interfaces/http/routes"
	"github.com/your-org/studio-storefront/internal/pkg/auth"
	"github.com/your-org/studio-storefront/internal/pkg/email"
	"github.com/your-org/studio-storefront/internal/pkg/logger"
	"github.com/your-org/studio-storefront/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg)
	log.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to database
	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), log)

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.Warnf("Index creation failed: %v", err)
	}

	if cfg.IsDevelopment() {
		if err := migration.GetTableInfo(); err != nil {
			log.Warnf("Failed to read table info: %v", err)
		}
	}

	cat, err := catalog.Load(cfg.Checkout.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// Session state lives in Redis
	kv := redis.NewStore(redisClient.GetClient(), cfg.Redis.KeyTTL)

	cartService := cart.NewService(kv, cat, log)
	intakeService := intake.NewService(kv, log)
	relay := lead.NewRelay(cfg.Relay.WebhookURL, cfg.Relay.Timeout, log)

	checkoutService := checkout.NewService(checkout.Dependencies{
		KV:        kv,
		Carts:     cartService,
		Intake:    intakeService,
		Catalog:   cat,
		Processor: payment.NewProcessor(cfg.Stripe, log),
		Orders:    order.NewRepository(db.GetDB()),
		Links:     auth.NewPaymentLinkManager(cfg.Checkout.LinkSigningSecret, cfg.App.Name, cfg.Checkout.FinalPaymentLinkTTL),
		Mailer:    email.NewEmailService(cfg, log),
		Notifier:  relay,
		Receipts:  pdf.NewService(cfg),
		Logger:    log,
	}, checkout.Options{
		SiteURL:        cfg.App.SiteURL,
		VerifySessions: cfg.Stripe.VerifySessions,
		Currency:       cfg.Checkout.FinalPaymentCurrency,
		LinkTTL:        cfg.Checkout.FinalPaymentLinkTTL,
	})

	h := &routes.Handlers{
		Catalog:  handlers.NewCatalogHandler(cat),
		Cart:     handlers.NewCartHandler(cartService, log),
		Checkout: handlers.NewCheckoutHandler(checkoutService, log),
		Project:  handlers.NewProjectHandler(checkoutService, log),
		Intake:   handlers.NewIntakeHandler(intakeService, log),
		Lead:     handlers.NewLeadHandler(relay, log),
	}

	log.Info("✅ All systems operational!")

	// Create and start HTTP server
	server := http.NewServer(cfg, log, redisClient.GetClient(), h, map[string]http.HealthCheck{
		"database": db.Health,
		"redis":    redisClient.Health,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("👋 Shutting down gracefully...")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Info("✅ Server shutdown completed")
}
