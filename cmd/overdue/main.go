// Command overdue marks sent and partially paid invoices past their due date as overdue.
// It is meant to run once a day from cron.
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

	marked, err := invoiceService.MarkOverdue(ctx, time.Now())
	if err != nil {
		appLog.Error("Overdue sweep failed", "marked", marked, "error", err)
		os.Exit(1)
	}
	appLog.Info("Overdue sweep finished", "marked", marked)
}
