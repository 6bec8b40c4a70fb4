package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRepository is a GORM implementation of LedgerRepository
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) WithinTransaction(ctx context.Context, fn func(tx LedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormLedgerTx{tx: tx})
	})
}

type gormLedgerTx struct {
	tx *gorm.DB
}

// FindInvoice locks the invoice row until the transaction ends.
func (t *gormLedgerTx) FindInvoice(invoiceID uint64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, invoiceID).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (t *gormLedgerTx) CreatePayment(payment *models.Payment) error {
	return t.tx.Create(payment).Error
}

func (t *gormLedgerTx) PaymentAmounts(invoiceID uint64) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := t.tx.Model(&models.Payment{}).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Pluck("amount", &amounts).Error
	return amounts, err
}

func (t *gormLedgerTx) SaveBalance(invoiceID uint64, balance decimal.Decimal, status models.InvoiceStatus) error {
	return t.tx.Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]interface{}{
			"balance_due": balance,
			"status":      status,
		}).Error
}
