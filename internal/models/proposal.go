package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Proposal struct {
	ID         uint64          `gorm:"primarykey" json:"id"`
	CompanyID  uint64          `gorm:"not null;index" json:"company_id"`
	ProjectID  *uint64         `gorm:"index" json:"project_id"`
	Title      string          `gorm:"type:varchar(255);not null" json:"title"`
	Total      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	Status     ProposalStatus  `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	ValidUntil *time.Time      `gorm:"type:date" json:"valid_until"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Items []ProposalItem `gorm:"foreignKey:ProposalID" json:"items,omitempty"`
}

type ProposalItem struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	ProposalID  uint64          `gorm:"not null;index" json:"proposal_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
