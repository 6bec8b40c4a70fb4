package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/agency-management-api/internal/database"
	"github.com/yukikurage/agency-management-api/internal/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository is a GORM implementation of InvoiceRepository
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts the invoice and its items in one transaction
func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
}

func (r *GormInvoiceRepository) FindInCompany(companyID, invoiceID uint64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date ASC").Order("id ASC")
		}).
		Where("company_id = ?", companyID).
		First(&invoice, invoiceID).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *GormInvoiceRepository) List(filter InvoiceFilter) ([]models.Invoice, int64, error) {
	query := r.db.Model(&models.Invoice{}).Where("company_id = ?", filter.CompanyID)
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []models.Invoice
	listQuery := query.Order("date DESC").Order("id DESC")
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}
	if err := listQuery.Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *GormInvoiceRepository) ListByCompany(companyID uint64) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := r.db.Where("company_id = ?", companyID).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ReplaceItems deletes the current items, inserts the new ones and saves the invoice header.
func (r *GormInvoiceRepository) ReplaceItems(invoice *models.Invoice, items []models.InvoiceItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].ID = 0
			items[i].InvoiceID = invoice.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		err := tx.Model(invoice).
			Select("project_id", "date", "due_date", "total", "balance_due", "currency", "notes").
			Updates(invoice).Error
		if err != nil {
			return err
		}

		invoice.Items = items
		return nil
	})
}

func (r *GormInvoiceRepository) UpdateStatus(invoiceID uint64, from, to models.InvoiceStatus) (bool, error) {
	result := r.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", invoiceID, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormInvoiceRepository) Delete(invoiceID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, invoiceID).Error
	})
}

func (r *GormInvoiceRepository) CountPayments(invoiceID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("invoice_id = ?", invoiceID).Count(&count).Error
	return count, err
}

func (r *GormInvoiceRepository) ListPayments(invoiceID uint64) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC").Order("id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *GormInvoiceRepository) LatestNumber(prefix string) (string, error) {
	var numbers []string
	err := r.db.Unscoped().Model(&models.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

// BilledTotals returns individual totals so the sum is done in decimal, not by the database.
func (r *GormInvoiceRepository) BilledTotals(projectID uint64) ([]decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := r.db.Model(&models.Invoice{}).
		Where("project_id = ?", projectID).
		Where("status NOT IN ?", []models.InvoiceStatus{models.InvoiceStatusVoid, models.InvoiceStatusCancelled}).
		Pluck("total", &totals).Error
	return totals, err
}

func (r *GormInvoiceRepository) ListDue(statuses []models.InvoiceStatus, before time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.
		Where("status IN ?", statuses).
		Where("due_date < ?", before).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}
