package models

import (
	"time"
)

// EmployeeLoan is a cash advance given to an employee. Unpaid loans are
// deducted in full from the next computed pay period, regardless of when the
// loan was taken. Once marked paid a loan never reverts to unpaid.
type EmployeeLoan struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	WorkshopID  uint       `gorm:"not null;index" json:"workshop_id"`
	EmployeeID  uint       `gorm:"not null;index" json:"employee_id"`
	Employee    Employee   `gorm:"foreignKey:EmployeeID" json:"employee"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Description *string    `json:"description"`
	LoanDate    time.Time  `gorm:"not null" json:"loan_date"`
	IsPaid      bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at"`
	CreatedByID uint       `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for the EmployeeLoan model
func (EmployeeLoan) TableName() string {
	return "employee_loans"
}
