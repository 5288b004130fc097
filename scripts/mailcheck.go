//go:build ignore

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/your-org/studio-storefront/internal/config"
	"github.com/your-org/studio-storefront/internal/pkg/email"
	"github.com/your-org/studio-storefront/internal/pkg/logger"
)

// Sends a sample deposit receipt through the configured provider.
//
//	go run scripts/mailcheck.go you@example.com
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/mailcheck.go <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	emailService := email.NewEmailService(cfg, logger.New(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err = emailService.SendDepositReceipt(ctx, os.Args[1], "Test Customer", email.DepositReceiptData{
		OrderNumber: "WEB-TEST-00000000",
		OrderDate:   time.Now().Format("January 2, 2006"),
		PlanName:    "Starter Site",
		PlanPrice:   "$500.00",
		Lines: []email.ReceiptLine{
			{Name: "Hosting", Quantity: 1, Total: "$50.00"},
		},
		Subtotal:  "$550.00",
		Deposit:   "$300.00",
		Remaining: "$250.00",
		OrderURL:  cfg.App.SiteURL,
	})
	if err != nil {
		log.Fatal("Send failed:", err)
	}

	log.Printf("✅ Sample receipt sent via %q", cfg.Email.Provider)
}
