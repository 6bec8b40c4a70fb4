// Command recurring drafts renewal invoices for active subscriptions whose
// billing date falls within the configured lead window, and advances each
// billing date by one cycle. It is meant to run once a day from cron.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yukikurage/agency-management-api/internal/config"
	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"github.com/yukikurage/agency-management-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}

	publisher, err := events.New(cfg.EventBus, events.Options{
		RedisAddr: cfg.RedisAddr(),
		Channel:   cfg.EventChannel,
		AMQPURL:   cfg.AMQPURL,
	}, appLog)
	if err != nil {
		appLog.Fatal("Failed to create event publisher", "bus", cfg.EventBus, "error", err)
	}
	defer publisher.Close()

	invoiceService := services.NewInvoiceService(
		repository.NewInvoiceRepository(db),
		repository.NewProjectRepository(db),
		publisher,
		services.InvoiceOptions{DueDays: cfg.InvoiceDueDays, Currency: cfg.InvoiceCurrency},
		appLog,
	)
	subscriptionService := services.NewSubscriptionService(
		repository.NewClientServiceRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewProductRepository(db),
		invoiceService,
		services.SubscriptionOptions{LeadDays: cfg.RecurringLeadDays},
		appLog,
	)

	generated, err := subscriptionService.GenerateRecurringInvoices(ctx, time.Now())
	if err != nil {
		appLog.Error("Recurring invoicing failed", "generated", generated, "error", err)
		os.Exit(1)
	}
	appLog.Info("Recurring invoicing finished", "generated", generated)
}
