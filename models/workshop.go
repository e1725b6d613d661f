package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription statuses for a workshop
const (
	SubscriptionTrial   = "trial"
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// Workshop represents a single tenant: one mobile-repair shop.
// Every domain row (repairs, employees, earnings, loans) is scoped to a workshop.
type Workshop struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Name               string         `gorm:"not null" json:"name"`
	Email              *string        `json:"email"`
	Whatsapp           *string        `json:"whatsapp"`
	SubscriptionStatus string         `gorm:"not null;default:'trial'" json:"subscription_status"` // trial, active, expired
	TrialEndsAt        *time.Time     `json:"trial_ends_at"`
	PaidUntil          *time.Time     `json:"paid_until"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Workshop model
func (Workshop) TableName() string {
	return "workshops"
}

// SubscriptionOK reports whether the workshop may still use gated features.
// A trial workshop is OK until its trial end date passes; an active workshop
// is OK until paid_until passes; expired is never OK.
func (w *Workshop) SubscriptionOK(now time.Time) bool {
	switch w.SubscriptionStatus {
	case SubscriptionTrial:
		return w.TrialEndsAt == nil || now.Before(*w.TrialEndsAt)
	case SubscriptionActive:
		return w.PaidUntil == nil || now.Before(*w.PaidUntil)
	default:
		return false
	}
}
