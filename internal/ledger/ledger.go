// Package ledger holds the invoice balance and status rules applied when a
// payment is registered. It performs no I/O; callers recompute from the full
// persisted payment history on every call.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/models"
	"github.com/yukikurage/agency-management-api/internal/money"
)

var (
	ErrNonPositiveAmount = errors.New("payment amount must be greater than zero")
	ErrNotPayable        = errors.New("invoice does not accept payments")
)

// Options tune the status transition.
type Options struct {
	// MarkPartial moves draft and sent invoices to partial while 0 < balance < total.
	MarkPartial bool
}

// Outcome is the derived invoice state after applying the payment history.
type Outcome struct {
	Balance decimal.Decimal
	Status  models.InvoiceStatus
	Paid    decimal.Decimal
	// Overpaid is true when the payments exceed the invoice total.
	Overpaid bool
}

// ValidateAmount rejects zero and negative payment amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !money.Round2(amount).IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// CanAcceptPayment reports whether an invoice in the given status may take payments.
func CanAcceptPayment(status models.InvoiceStatus) error {
	switch status {
	case models.InvoiceStatusVoid, models.InvoiceStatusCancelled:
		return ErrNotPayable
	default:
		return nil
	}
}

// Balance returns max(0, total - sum(payments)) at two decimal places.
func Balance(total decimal.Decimal, payments []decimal.Decimal) decimal.Decimal {
	return money.Round2(money.ClampZero(total.Sub(money.Sum(payments...))))
}

// Apply derives the balance and status of an invoice from its total, current
// status and the complete list of payment amounts.
func Apply(total decimal.Decimal, current models.InvoiceStatus, payments []decimal.Decimal, opts Options) Outcome {
	paid := money.Round2(money.Sum(payments...))
	balance := Balance(total, payments)

	out := Outcome{
		Balance:  balance,
		Status:   nextStatus(total, balance, current, opts),
		Paid:     paid,
		Overpaid: paid.GreaterThan(money.Round2(total)),
	}
	return out
}

func nextStatus(total, balance decimal.Decimal, current models.InvoiceStatus, opts Options) models.InvoiceStatus {
	if money.IsZero2(balance) {
		return models.InvoiceStatusPaid
	}

	partial := opts.MarkPartial && balance.LessThan(money.Round2(total))

	switch current {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent:
		if partial {
			return models.InvoiceStatusPartial
		}
		return models.InvoiceStatusSent
	default:
		return current
	}
}
