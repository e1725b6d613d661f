package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee represents a technician on a workshop's payroll.
// Compensation is a base salary per month plus a percentage of the net profit
// of every repair the technician delivers.
type Employee struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	WorkshopID     uint           `gorm:"not null;index" json:"workshop_id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"` // login identity of the technician
	User           User           `gorm:"foreignKey:UserID" json:"user"`
	CommissionRate float64        `gorm:"not null;default:0" json:"commission_rate"` // percentage of net profit per repair
	BaseSalary     float64        `gorm:"not null;default:0" json:"base_salary"`     // monthly amount, zero for pure-commission staff
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	HiredAt        time.Time      `json:"hired_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}
