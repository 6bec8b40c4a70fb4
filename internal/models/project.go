package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Project struct {
	ID          uint64              `gorm:"primarykey" json:"id"`
	CompanyID   uint64              `gorm:"not null;index" json:"company_id"`
	Name        string              `gorm:"type:varchar(255);not null" json:"name"`
	Description string              `gorm:"type:text" json:"description"`
	Status      ProjectStatus       `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Progress    int                 `gorm:"not null;default:0" json:"progress"`
	Price       decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"price"`
	StartDate   *time.Time          `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time          `gorm:"type:date" json:"end_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeletedAt   gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relations
	Company Company `gorm:"foreignKey:CompanyID" json:"-"`
	Stages  []Stage `gorm:"foreignKey:ProjectID" json:"stages,omitempty"`
}

type Stage struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	ProjectID uint64      `gorm:"not null;index" json:"project_id"`
	Name      string      `gorm:"type:varchar(255);not null" json:"name"`
	Order     int         `gorm:"column:sort_order;not null;default:0" json:"order"`
	Status    StageStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	DueDate   *time.Time  `gorm:"type:date" json:"due_date"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Relations
	Tasks []Task `gorm:"foreignKey:StageID" json:"tasks,omitempty"`
}
