package models

import (
	"time"

	"gorm.io/gorm"
)

// Repair statuses. A repair moves forward through received, in_progress,
// ready and delivered, or drops out of any non-terminal state into failed.
const (
	StatusReceived   = "received"
	StatusInProgress = "in_progress"
	StatusReady      = "ready"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
)

// Currencies accepted for repair pricing
const (
	CurrencyNIO = "NIO"
	CurrencyUSD = "USD"
)

// Repair represents one device-service order in a workshop
type Repair struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	WorkshopID        uint           `gorm:"not null;index" json:"workshop_id"`
	CustomerName      string         `gorm:"not null" json:"customer_name"`
	CustomerPhone     string         `gorm:"not null" json:"customer_phone"`
	DeviceBrand       string         `gorm:"not null" json:"device_brand"`
	DeviceModel       string         `gorm:"not null" json:"device_model"`
	DeviceIMEI        *string        `json:"device_imei"`
	RepairDescription *string        `json:"repair_description"`
	TechnicalNotes    *string        `json:"technical_notes"`
	Status            string         `gorm:"not null;default:'received'" json:"status"` // received, in_progress, ready, delivered, failed
	Currency          string         `gorm:"not null;default:'NIO'" json:"currency"`    // NIO or USD
	EstimatedPrice    float64        `gorm:"not null" json:"estimated_price"`
	FinalPrice        *float64       `json:"final_price"` // set when the repair is delivered
	PartsCost         *float64       `json:"parts_cost"`  // set when the repair is delivered
	Deposit           *float64       `json:"deposit"`
	WarrantyDays      *int           `json:"warranty_days"`
	DeliveryDate      *time.Time     `json:"delivery_date"`
	FailureReason     *string        `json:"failure_reason"` // set only when the repair is marked failed
	PhotoReceivedKey  *string        `json:"photo_received_key"`
	PhotoDeliveredKey *string        `json:"photo_delivered_key"`
	TechnicianID      *uint          `gorm:"index" json:"technician_id"` // user id, assigned when the repair is delivered
	Technician        *User          `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	CreatedByID       uint           `gorm:"not null;index" json:"created_by_id"`
	CreatedBy         User           `gorm:"foreignKey:CreatedByID" json:"created_by"`
	CompletedAt       *time.Time     `json:"completed_at"` // set on the terminal transition
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Repair model
func (Repair) TableName() string {
	return "repairs"
}

// repairTransitions holds the allowed status transitions. The happy path is
// forward-only; failed is reachable from every non-terminal state.
var repairTransitions = map[string][]string{
	StatusReceived:   {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusReady, StatusFailed},
	StatusReady:      {StatusDelivered, StatusFailed},
	StatusDelivered:  {},
	StatusFailed:     {},
}

// CanTransition reports whether a repair may move from one status to another
func CanTransition(from, to string) bool {
	for _, next := range repairTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status has no outgoing transitions
func IsTerminalStatus(status string) bool {
	return status == StatusDelivered || status == StatusFailed
}

// IsValidStatus reports whether the string is one of the five repair statuses
func IsValidStatus(status string) bool {
	_, ok := repairTransitions[status]
	return ok
}
