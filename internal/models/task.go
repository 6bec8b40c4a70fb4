package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Task struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	StageID     uint64          `gorm:"not null;index" json:"stage_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Status      TaskStatus      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority    TaskPriority    `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Weight      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:1.00" json:"weight"`
	DueDate     *time.Time      `gorm:"type:date" json:"due_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Subtasks []Subtask `gorm:"foreignKey:TaskID" json:"subtasks,omitempty"`
}

// IsCompleted mirrors the completed status as a boolean.
func (t Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

type Subtask struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	TaskID      uint64     `gorm:"not null;index" json:"task_id"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	DueDate     *time.Time `gorm:"type:date" json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
