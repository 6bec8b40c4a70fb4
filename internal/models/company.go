package models

import (
	"time"

	"gorm.io/gorm"
)

// Company is a client organisation. Agency staff join as managers, client users as clients.
type Company struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	TaxID      string         `gorm:"type:varchar(64)" json:"tax_id"`
	InviteCode string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members  []CompanyMember `gorm:"foreignKey:CompanyID" json:"members,omitempty"`
	Projects []Project       `gorm:"foreignKey:CompanyID" json:"projects,omitempty"`
}

type CompanyMember struct {
	CompanyID uint64      `gorm:"primarykey" json:"company_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      CompanyRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// CanManage reports whether the member may modify company resources.
func (m CompanyMember) CanManage() bool {
	return m.Role == RoleManager
}
