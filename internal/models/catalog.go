package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalogue entry sold to client companies through the marketplace.
type Product struct {
	ID           uint64          `gorm:"primarykey" json:"id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Slug         string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Category     ProductCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Type         ProductType     `gorm:"type:varchar(20);not null" json:"type"`
	BillingCycle BillingCycle    `gorm:"type:varchar(20);not null" json:"billing_cycle"`
	BasePrice    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"base_price"`
	Description  string          `gorm:"type:text" json:"description"`
	IsActive     bool            `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Relations
	Addons []ProductAddon `gorm:"foreignKey:ProductID" json:"addons,omitempty"`
}

// ProductAddon is an optional extra priced on top of its product.
type ProductAddon struct {
	ID              uint64          `gorm:"primarykey" json:"id"`
	ProductID       uint64          `gorm:"not null;index" json:"product_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	AdditionalPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"additional_price"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ClientService is a product provisioned for a company.
type ClientService struct {
	ID          uint64              `gorm:"primarykey" json:"id"`
	CompanyID   uint64              `gorm:"not null;index" json:"company_id"`
	ProductID   uint64              `gorm:"not null;index" json:"product_id"`
	AddonID     *uint64             `json:"addon_id"`
	CustomPrice decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"custom_price"`
	StartDate   time.Time           `gorm:"type:date;not null" json:"start_date"`
	EndDate     *time.Time          `gorm:"type:date" json:"end_date"`
	Status      ClientServiceStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Notes       string              `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Relations
	Product Product       `gorm:"foreignKey:ProductID" json:"product"`
	Addon   *ProductAddon `gorm:"foreignKey:AddonID" json:"addon,omitempty"`
}

// EffectivePrice is the custom price when set, otherwise the product base
// price plus the selected addon. Product and Addon must be loaded.
func (s ClientService) EffectivePrice() decimal.Decimal {
	if s.CustomPrice.Valid {
		return s.CustomPrice.Decimal
	}
	price := s.Product.BasePrice
	if s.Addon != nil {
		price = price.Add(s.Addon.AdditionalPrice)
	}
	return price
}

// Subscription is a recurring charge renewed by the recurring invoice job.
type Subscription struct {
	ID              uint64             `gorm:"primarykey" json:"id"`
	CompanyID       uint64             `gorm:"not null;index" json:"company_id"`
	ClientServiceID *uint64            `gorm:"index" json:"client_service_id"`
	PlanName        string             `gorm:"type:varchar(255);not null" json:"plan_name"`
	Price           decimal.Decimal    `gorm:"type:decimal(18,2);not null" json:"price"`
	BillingCycle    BillingCycle       `gorm:"type:varchar(20);not null" json:"billing_cycle"`
	NextBillingDate time.Time          `gorm:"type:date;not null" json:"next_billing_date"`
	Status          SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ServiceRequest is a member's order for a product, reviewed by a manager.
type ServiceRequest struct {
	ID         uint64               `gorm:"primarykey" json:"id"`
	CompanyID  uint64               `gorm:"not null;index" json:"company_id"`
	UserID     uint64               `gorm:"not null;index" json:"user_id"`
	ProductID  uint64               `gorm:"not null;index" json:"product_id"`
	TotalPrice decimal.Decimal      `gorm:"type:decimal(18,2);not null" json:"total_price"`
	Notes      string               `gorm:"type:text" json:"notes"`
	Status     ServiceRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`

	// Relations
	Product Product        `gorm:"foreignKey:ProductID" json:"product"`
	Addons  []ProductAddon `gorm:"many2many:service_request_addons" json:"addons,omitempty"`
}

// ProjectAdditional is extra billable scope agreed on top of the project price.
type ProjectAdditional struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	ProjectID   uint64          `gorm:"not null;index" json:"project_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Comment is a discussion message on a task or stage.
type Comment struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	UserID     uint64         `gorm:"not null;index" json:"user_id"`
	TargetType CommentTarget  `gorm:"type:varchar(10);not null" json:"target_type"`
	TargetID   uint64         `gorm:"not null" json:"target_id"`
	Body       string         `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user"`
}
