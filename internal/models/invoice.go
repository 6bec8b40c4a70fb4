package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID         uint64          `gorm:"primarykey" json:"id"`
	CompanyID  uint64          `gorm:"not null;index" json:"company_id"`
	ProjectID  *uint64         `gorm:"index" json:"project_id"`
	Number     string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"number"`
	Date       time.Time       `gorm:"type:date;not null" json:"date"`
	DueDate    time.Time       `gorm:"type:date;not null" json:"due_date"`
	Status     InvoiceStatus   `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Total      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	BalanceDue decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"balance_due"`
	Currency   string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

type InvoiceItem struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	InvoiceID   uint64          `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Payment is append-only; the invoice balance is always derived from the full set.
type Payment struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	InvoiceID   uint64          `gorm:"not null;index" json:"invoice_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Method      string          `gorm:"type:varchar(50);not null" json:"method"`
	Reference   string          `gorm:"type:varchar(255)" json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
}
