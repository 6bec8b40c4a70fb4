package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/constants"
	"github.com/yukikurage/agency-management-api/internal/events"
	"github.com/yukikurage/agency-management-api/internal/ledger"
	"github.com/yukikurage/agency-management-api/internal/logger"
	"github.com/yukikurage/agency-management-api/internal/metrics"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
	"github.com/yukikurage/agency-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrPaymentDateRequired  = errors.New("payment date is required")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceNotPayable    = errors.New("invoice is void or cancelled and cannot take payments")
	ErrInvoiceCompanyAccess = errors.New("invoice does not belong to this company")
)

// PaymentService registers payments against invoices.
type PaymentService struct {
	ledgerRepo  repository.LedgerRepository
	invoiceRepo repository.InvoiceRepository
	publisher   events.Publisher
	opts        ledger.Options
	log         *logger.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	ledgerRepo repository.LedgerRepository,
	invoiceRepo repository.InvoiceRepository,
	publisher events.Publisher,
	opts ledger.Options,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		publisher:   publisher,
		opts:        opts,
		log:         log.With("service", "PaymentService"),
	}
}

// RegisterPaymentInput represents a payment to record.
type RegisterPaymentInput struct {
	CompanyID   uint64
	Amount      decimal.Decimal
	PaymentDate *time.Time
	Method      string
	Reference   string
}

// PaymentResult is the invoice state after a payment.
type PaymentResult struct {
	PaymentID  uint64
	InvoiceID  uint64
	NewBalance decimal.Decimal
	Status     models.InvoiceStatus
	// PreviousStatus is the invoice status before the payment.
	PreviousStatus models.InvoiceStatus
	// Overpaid is set when the payments now exceed the invoice total. The balance is clamped at 0.
	Overpaid bool
}

// RegisterPayment records a payment and recomputes the invoice balance from the
// full payment history in one transaction. The payment.registered event, and
// invoice.status_changed when the status moved, are published only after the
// transaction commits.
func (s *PaymentService) RegisterPayment(ctx context.Context, invoiceID uint64, input RegisterPaymentInput) (*PaymentResult, error) {
	if err := ledger.ValidateAmount(input.Amount); err != nil {
		return nil, ErrInvalidAmount
	}
	if input.PaymentDate == nil || input.PaymentDate.IsZero() {
		return nil, ErrPaymentDateRequired
	}

	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = constants.DefaultPaymentMethod
	}

	amount := money.Round2(input.Amount)
	var result PaymentResult

	err := s.ledgerRepo.WithinTransaction(ctx, func(tx repository.LedgerTx) error {
		invoice, err := tx.FindInvoice(invoiceID)
		if err != nil {
			return err
		}
		if input.CompanyID != 0 && invoice.CompanyID != input.CompanyID {
			return ErrInvoiceCompanyAccess
		}
		if err := ledger.CanAcceptPayment(invoice.Status); err != nil {
			return ErrInvoiceNotPayable
		}

		payment := &models.Payment{
			InvoiceID:   invoiceID,
			Amount:      amount,
			PaymentDate: *input.PaymentDate,
			Method:      method,
			Reference:   strings.TrimSpace(input.Reference),
		}
		if err := tx.CreatePayment(payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		amounts, err := tx.PaymentAmounts(invoiceID)
		if err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}

		outcome := ledger.Apply(invoice.Total, invoice.Status, amounts, s.opts)
		if err := tx.SaveBalance(invoiceID, outcome.Balance, outcome.Status); err != nil {
			return fmt.Errorf("failed to save balance: %w", err)
		}

		result = PaymentResult{
			PaymentID:      payment.ID,
			InvoiceID:      invoiceID,
			NewBalance:     outcome.Balance,
			Status:         outcome.Status,
			PreviousStatus: invoice.Status,
			Overpaid:       outcome.Overpaid,
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrInvoiceCompanyAccess):
			return nil, ErrInvoiceNotFound
		case errors.Is(err, ErrInvoiceNotPayable):
			return nil, err
		}
		s.log.Error("payment registration failed", "invoice_id", invoiceID, "error", err)
		return nil, fmt.Errorf("failed to register payment: %w", err)
	}

	metrics.IncrementPaymentsRegistered(string(result.Status))
	s.log.Info("payment registered",
		"invoice_id", invoiceID,
		"payment_id", result.PaymentID,
		"amount", money.Format(amount),
		"new_balance", money.Format(result.NewBalance),
		"status", result.Status,
		"overpaid", result.Overpaid,
	)

	events.PublishAfterCommit(ctx, s.publisher, s.log,
		events.NewPaymentRegistered(invoiceID, result.NewBalance, result.Status, amount))
	if result.PreviousStatus != result.Status {
		events.PublishAfterCommit(ctx, s.publisher, s.log,
			events.NewInvoiceStatusChanged(invoiceID, result.PreviousStatus, result.Status))
	}

	return &result, nil
}

// ListPayments returns an invoice's payments in payment date order.
func (s *PaymentService) ListPayments(companyID, invoiceID uint64) ([]models.Payment, error) {
	if _, err := s.invoiceRepo.FindInCompany(companyID, invoiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}

	payments, err := s.invoiceRepo.ListPayments(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
