package models

import (
	"time"
)

// EarningRecord is one commission ledger entry: the amount an employee earned
// from one delivered repair. Rows are written exactly once when the repair is
// delivered and are never updated afterwards, even if the repair is edited
// later (frozen-ledger semantics).
type EarningRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	WorkshopID       uint      `gorm:"not null;index" json:"workshop_id"`
	EmployeeID       uint      `gorm:"not null;index" json:"employee_id"`
	Employee         Employee  `gorm:"foreignKey:EmployeeID" json:"employee"`
	RepairID         uint      `gorm:"not null;uniqueIndex" json:"repair_id"` // one earning per repair
	EarningsDate     time.Time `gorm:"not null;index" json:"earnings_date"`
	GrossIncome      float64   `gorm:"not null" json:"gross_income"`      // the repair's final price
	PartsCost        float64   `gorm:"not null" json:"parts_cost"`
	NetProfit        float64   `gorm:"not null" json:"net_profit"`        // gross income - parts cost, may be negative
	CommissionEarned float64   `gorm:"not null" json:"commission_earned"` // net profit * rate / 100
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for the EarningRecord model
func (EarningRecord) TableName() string {
	return "daily_earnings"
}
